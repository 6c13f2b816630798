package mixin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb/schema"
	"github.com/syssam/dirtydb/schema/mixin"
)

// TestSchemaBaseMixin tests the base Schema mixin.
func TestSchemaBaseMixin(t *testing.T) {
	tb := schema.NewTable("things")
	tb.Mixin(mixin.Schema{})
	assert.Empty(t, tb.Columns)
}

func TestBuiltinMixins(t *testing.T) {
	tests := []struct {
		name  string
		mixin schema.Mixin
		want  []string
	}{
		{"IDSet", mixin.IDSet{}, []string{"internal_id", "id"}},
		{"UUIDIDSet", mixin.UUIDIDSet{}, []string{"internal_id", "id"}},
		{"Time", mixin.Time{}, []string{"created_at", "updated_at"}},
		{"CreateTime", mixin.CreateTime{}, []string{"created_at"}},
		{"UpdateTime", mixin.UpdateTime{}, []string{"updated_at"}},
		{"SoftDelete", mixin.SoftDelete{}, []string{"deleted_at"}},
		{"TimeSoftDelete", mixin.TimeSoftDelete{}, []string{"created_at", "updated_at", "deleted_at"}},
		{"Blame", mixin.Blame{}, []string{"creator_id", "editor_id"}},
		{"TenantID", mixin.TenantID{}, []string{"tenant_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := schema.NewTable("things").Mixin(tt.mixin)
			assert.Equal(t, tt.want, tb.ColumnNames())
		})
	}
}

func TestMixinColumns(t *testing.T) {
	tb := schema.NewTable("posts").Mixin(
		mixin.IDSet{},
		mixin.SoftDelete{},
		mixin.Blame{},
		mixin.TenantID{Table: "tenants"},
	)

	id := tb.Lookup("internal_id")
	require.NotNil(t, id)
	assert.Equal(t, schema.TypeAutoIncrementID, id.Type.Kind)

	pub := tb.Lookup("id")
	require.NotNil(t, pub)
	assert.True(t, pub.Unique)
	assert.Equal(t, schema.ULIDLength, pub.Type.Size)

	assert.True(t, tb.Lookup("deleted_at").Null)

	creator := tb.Lookup("creator_id")
	assert.True(t, creator.Null)
	require.NotNil(t, creator.Relation)
	assert.Equal(t, schema.UserTable, creator.Relation.Table)

	tenant := tb.Lookup("tenant_id")
	require.NotNil(t, tenant.Relation)
	assert.True(t, tenant.Relation.CascadeDelete)
	require.Len(t, tb.Indexes, 1)
	assert.Equal(t, "posts_tenant_id_index", tb.Indexes[0].Name("posts"))
}

func TestMixinFunc(t *testing.T) {
	audit := schema.MixinFunc(func(t *schema.TableBlueprint) {
		t.String("created_by").Nullable()
	})
	tb := schema.NewTable("posts").Mixin(mixin.Time{}, audit)
	assert.Equal(t, []string{"created_at", "updated_at", "created_by"}, tb.ColumnNames())
}
