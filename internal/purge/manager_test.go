package purge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/prompter"
	"github.com/MrSnakeDoc/metafetch/internal/store"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

type fakeAdmin struct {
	keys      map[string]bool
	deleteErr error
}

func (f *fakeAdmin) List(context.Context) ([]store.Info, error) {
	var out []store.Info
	for k := range f.keys {
		out = append(out, store.Info{Key: k})
	}
	return out, nil
}

func (f *fakeAdmin) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if !f.keys[key] {
		return fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	delete(f.keys, key)
	return nil
}

func newAdmin(keys ...string) *fakeAdmin {
	f := &fakeAdmin{keys: make(map[string]bool)}
	for _, k := range keys {
		f.keys[k] = true
	}
	return f
}

func TestExecute_NamedKeys(t *testing.T) {
	a := newAdmin("details-US", "details-DE")
	n, err := New(a).Execute(context.Background(), []string{"details-US", "details-FR"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, map[string]bool{"details-DE": true}, a.keys)
}

func TestExecute_All(t *testing.T) {
	a := newAdmin("details-US", "details-DE", "details-FR")
	n, err := New(a).Execute(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, a.keys)
}

func TestExecute_AllDeclined(t *testing.T) {
	a := newAdmin("details-US")
	p := New(a)
	p.Prompter = prompter.Always(false)

	n, err := p.Execute(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, a.keys, 1)
}

func TestExecute_DeleteErrorsAreJoined(t *testing.T) {
	a := newAdmin("details-US", "details-DE")
	a.deleteErr = errors.New("read-only file system")

	n, err := New(a).Execute(context.Background(), []string{"details-US", "details-DE"}, false)
	assert.Zero(t, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete details-US")
	assert.Contains(t, err.Error(), "delete details-DE")
}
