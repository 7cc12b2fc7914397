package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientIsEmpty(t *testing.T) {
	repo := NewCacheRepository(nil, "timetable", nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "generate:abc", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "generate:abc", map[string]string{"status": "success"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "generate:*"))
	assert.Error(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "timetable:generate:abc", NewCacheRepository(nil, "timetable", nil).key("generate:abc"))
	assert.Equal(t, "generate:abc", NewCacheRepository(nil, "", nil).key("generate:abc"))
}
