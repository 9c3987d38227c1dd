package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/storage/storagetest"
)

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "photo.png", SafeFilename("photo.png"))
	assert.Equal(t, "my-photo-1-.png", SafeFilename("my photo (1).png"))
	assert.Equal(t, "evil.sh", SafeFilename("../../evil.sh"))
	assert.Equal(t, "file", SafeFilename(""))
	assert.Equal(t, "pic.jpg", SafeFilename(`C:\Users\me\pic.jpg`))
}

func TestObjectKeyLayout(t *testing.T) {
	owner := uuid.New()
	key := ObjectKey("/subcategories/", owner, "cover.png")

	pattern := regexp.MustCompile(`^subcategories/` + owner.String() + `/[0-9a-f-]{36}-\d+-cover\.png$`)
	assert.Regexp(t, pattern, key)
}

func TestPutUploadDefaultsContentType(t *testing.T) {
	rec := storagetest.New()
	owner := uuid.New()

	stored, err := PutUpload(context.Background(), rec, "products", owner, Upload{Filename: "a.png", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Key, "products/"+owner.String()+"/"))
	assert.Equal(t, rec.BaseURL+"/"+stored.Key, stored.URL)
	assert.True(t, rec.Has(stored.Key))
}

func TestDeleteAllCollectsFailuresAndSkipsBlank(t *testing.T) {
	rec := storagetest.New()
	rec.DeleteErr = errors.New("unavailable")

	err := DeleteAll(context.Background(), rec, "a", "", "b")
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{"a", "b"}, rec.Deletes)
}
