package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	t.Run("root category path is its own ID", func(t *testing.T) {
		category, err := NewCategory(uuid.New(), "Outdoor-Gear", "Outdoor Gear", testNow)
		require.NoError(t, err)

		assert.Equal(t, "outdoor-gear", category.Slug, "slugs are normalized to lower case")
		assert.True(t, category.IsRoot())
		assert.Equal(t, 0, category.Level)
		assert.Equal(t, category.ID.String(), category.Path)
		assert.True(t, category.IsActive())
	})

	t.Run("rejects invalid slug characters", func(t *testing.T) {
		_, err := NewCategory(uuid.New(), "outdoor gear!", "Outdoor Gear", testNow)
		require.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCategory(uuid.New(), "outdoor-gear", "", testNow)
		require.Error(t, err)
	})
}

func TestNewChildCategory(t *testing.T) {
	tenantID := uuid.New()

	t.Run("child extends the parent path", func(t *testing.T) {
		root, err := NewCategory(tenantID, "outdoor", "Outdoor", testNow)
		require.NoError(t, err)

		child, err := NewChildCategory(tenantID, "tents", "Tents", root, testNow)
		require.NoError(t, err)

		assert.Equal(t, 1, child.Level)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)
		assert.Equal(t, root.Path+"/"+child.ID.String(), child.Path)
		assert.True(t, child.IsDescendantOf(root))
		assert.False(t, root.IsDescendantOf(child))
	})

	t.Run("depth is bounded", func(t *testing.T) {
		parent, err := NewCategory(tenantID, "l0", "Level 0", testNow)
		require.NoError(t, err)

		for i := 1; i < MaxCategoryDepth; i++ {
			child, err := NewChildCategory(tenantID, uuid.NewString()[:8], "Child", parent, testNow)
			require.NoError(t, err, "level %d should be allowed", i)
			parent = child
		}

		_, err = NewChildCategory(tenantID, "toodeep", "Too Deep", parent, testNow)
		require.Error(t, err)
	})

	t.Run("requires a parent", func(t *testing.T) {
		_, err := NewChildCategory(tenantID, "tents", "Tents", nil, testNow)
		require.Error(t, err)
	})
}

func TestCategory_Lifecycle(t *testing.T) {
	category, err := NewCategory(uuid.New(), "outdoor", "Outdoor", testNow)
	require.NoError(t, err)

	require.NoError(t, category.Update("Outdoor & Camping", "Gear for outside", testNow))
	assert.Equal(t, "Outdoor & Camping", category.Name)

	category.Deactivate(testNow)
	assert.False(t, category.IsActive())

	category.Activate(testNow)
	assert.True(t, category.IsActive())

	category.SetSortOrder(3, testNow)
	assert.Equal(t, 3, category.SortOrder)
}
