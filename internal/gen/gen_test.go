package gen

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianwhu/xillium-sub000/internal/crud"
	"github.com/brianwhu/xillium-sub000/internal/schema"
	"github.com/brianwhu/xillium-sub000/internal/storage"
)

// Test Plan for code generation:
// - each descriptor becomes an exported struct named by its type name
// - required fields are plain values, optional scalars are pointers
// - db/json/validate tags carry column, request name, required and max size
// - duplicate type names are emitted once
// - snapshots round-trip descriptors and reject unknown versions
// - descriptors compiled from a live SQLite schema render end to end

func sampleDescriptor() *crud.Descriptor {
	return &crud.Descriptor{
		Name:     "CREATE:users:::",
		TypeName: "CreateUser0a1b2c3d",
		Fields: []crud.Field{
			{Name: "id", Table: "users", Column: "id", Type: "INTEGER", Kind: schema.KindInteger, Required: true},
			{Name: "user_name", Table: "users", Column: "name", Type: "VARCHAR", Kind: schema.KindString, Required: true, MaxSize: 32},
			{Name: "email", Table: "users", Column: "email", Type: "TEXT", Kind: schema.KindString},
			{Name: "status", Table: "users", Column: "status", Type: "TEXT", Kind: schema.KindString, Forbidden: "DELETED"},
			{Name: "avatar", Table: "users", Column: "avatar", Type: "BLOB", Kind: schema.KindBytes},
			{Name: "joined_at", Table: "users", Column: "joined_at", Type: "TIMESTAMP", Kind: schema.KindTime},
		},
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	d := sampleDescriptor()
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, "requests", []*crud.Descriptor{d, d}))
	src := buf.String()

	assert.Contains(t, src, "// Code generated by crudc. DO NOT EDIT.")
	assert.Contains(t, src, "package requests")
	assert.Contains(t, src, "// CreateUser0a1b2c3d is the request of action CREATE:users:::.")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("type CreateUser0a1b2c3d struct")))

	assert.Regexp(t, "Id\\s+int64\\s+`db:\"id\" json:\"id\" validate:\"required\"`", src)
	assert.Regexp(t, "UserName\\s+string\\s+`db:\"name\" json:\"user_name\" validate:\"required,max=32\"`", src)
	assert.Regexp(t, "Email\\s+\\*string\\s+`db:\"email\" json:\"email,omitempty\"`", src)
	assert.Regexp(t, "Status\\s+\\*string\\s+`db:\"status\" json:\"status,omitempty\" validate:\"omitempty,ne=DELETED\"`", src)
	assert.Regexp(t, "Avatar\\s+\\[\\]byte", src)
	assert.Regexp(t, "JoinedAt\\s+\\*time.Time", src)
	assert.Contains(t, src, `"time"`)
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, []*crud.Descriptor{sampleDescriptor()}))

	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sampleDescriptor(), got[0])
}

func TestReadSnapshot_Errors(t *testing.T) {
	t.Parallel()

	_, err := ReadSnapshot(bytes.NewReader([]byte{0xc1}))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, nil))
	raw := buf.Bytes()
	// bump the version field in place: fixint 1 -> 2
	idx := bytes.IndexByte(raw, 0x01)
	require.GreaterOrEqual(t, idx, 0)
	raw[idx] = 0x02
	_, err = ReadSnapshot(bytes.NewReader(raw))
	assert.ErrorContains(t, err, "unsupported snapshot version 2")
}

func TestGenerate_FromCompiledSchema(t *testing.T) {
	t.Parallel()

	db := storage.NewTestDB(t, `CREATE TABLE accounts (
		id INTEGER PRIMARY KEY,
		owner VARCHAR(40) NOT NULL,
		balance DECIMAL(12, 2)
	)`)
	compiler := crud.NewCompiler(schema.NewSQLiteIntrospector(db))
	cmd, err := compiler.Compile(context.Background(), crud.MustAction(crud.Create, []string{"accounts"}, nil, nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, "model", []*crud.Descriptor{cmd.Descriptor}))
	src := buf.String()
	assert.Contains(t, src, "type "+cmd.Descriptor.TypeName+" struct")
	assert.Regexp(t, "Owner\\s+string\\s+`db:\"owner\" json:\"owner\" validate:\"required,max=40\"`", src)
	assert.Regexp(t, "Balance\\s+\\*string", src)
}
