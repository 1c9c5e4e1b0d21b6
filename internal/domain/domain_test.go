package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("Widget", "", 9.99)
	require.NoError(t, err)
	assert.True(t, p.Available)
	assert.Zero(t, p.ID)

	_, err = NewProduct("", "", 1)
	assert.ErrorIs(t, err, ErrInvalidProductName)

	_, err = NewProduct("Widget", "", -1)
	assert.ErrorIs(t, err, ErrInvalidProductPrice)
}

func TestProductPatch_Apply(t *testing.T) {
	name := "Gadget"
	price := 4.5
	p := &Product{ID: 7, Name: "Widget", Price: 1, Available: true}

	ProductPatch{Name: &name, Price: &price}.Apply(p)

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Gadget", p.Name)
	assert.Equal(t, 4.5, p.Price)
	assert.True(t, p.Available)
	assert.True(t, ProductPatch{}.IsEmpty())
}

func TestProductPatch_Validate(t *testing.T) {
	empty := ""
	negative := -0.01
	assert.ErrorIs(t, ProductPatch{Name: &empty}.Validate(), ErrInvalidProductName)
	assert.ErrorIs(t, ProductPatch{Price: &negative}.Validate(), ErrInvalidProductPrice)
	assert.NoError(t, ProductPatch{}.Validate())
}

func TestFilter_Matches(t *testing.T) {
	available := &Product{ID: 1, Available: true}
	removed := &Product{ID: 2, Available: false}

	assert.True(t, Filter{}.Matches(removed))
	assert.True(t, Filter{}.ByID(1).OnlyAvailable().Matches(available))
	assert.False(t, Filter{}.ByID(2).OnlyAvailable().Matches(removed))
	assert.True(t, Filter{}.InIDs([]int64{2, 3}).Matches(removed))
	assert.False(t, Filter{}.InIDs([]int64{3}).Matches(available))
}

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		page, limit int
		total       int64
		want        int64
	}{
		{1, 10, 0, 0},
		{1, 10, 1, 1},
		{1, 10, 10, 1},
		{2, 10, 11, 2},
		{1, 3, 7, 3},
		{1, 0, 5, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("total=%d/limit=%d", tt.total, tt.limit), func(t *testing.T) {
			meta := NewPageMeta(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.want, meta.LastPage)
			assert.Equal(t, tt.total, meta.Total)
			assert.Equal(t, tt.page, meta.Page)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 20, Offset(3, 10))
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []int64{1, 2}, UniqueIDs([]int64{1, 1, 2}))
	assert.Empty(t, UniqueIDs(nil))
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFoundError(3))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Product with id #3 not found", PublicMessage(err))
	assert.ErrorIs(t, err, ErrProductNotFound)

	conflict := ConflictError("name", ErrDuplicateName)
	assert.Equal(t, KindConflict, KindOf(conflict))
	assert.Equal(t, "Unique constraint failed on the fields: ('name')", conflict.Error())

	internal := InternalError(errors.New("connection reset"))
	assert.Equal(t, "Internal Server Error", internal.Error())
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, "Internal Server Error", PublicMessage(errors.New("secret detail")))
}
