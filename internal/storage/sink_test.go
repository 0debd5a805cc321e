package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/internal/storage"
	"github.com/rohmanhakim/fic-roulette/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metadataSinkMock struct {
	metadata.NoopSink
	errorCauses []metadata.ErrorCause
}

func (m *metadataSinkMock) RecordError(
	_ time.Time,
	_ string,
	_ string,
	cause metadata.ErrorCause,
	_ string,
	_ []metadata.Attribute,
) {
	m.errorCauses = append(m.errorCauses, cause)
}

func testItem() catalog.Item {
	return catalog.Item{
		Title:  "A Work",
		Author: "someone",
		URL:    "https://archiveofourown.org/works/42",
	}.WithDefaults()
}

func TestLocalSink_Write_Success(t *testing.T) {
	tests := []struct {
		name     string
		hashAlgo hashutil.HashAlgo
		ext      string
	}{
		{name: "markdown with SHA256", hashAlgo: hashutil.HashAlgoSHA256, ext: ".md"},
		{name: "json with BLAKE3", hashAlgo: hashutil.HashAlgoBLAKE3, ext: ".json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "picks")
			mockSink := &metadataSinkMock{}
			sink := storage.NewLocalSink(mockSink, tt.hashAlgo)

			result, err := sink.Write(dir, testItem(), []byte("# A Work\n"), tt.ext)
			require.Nil(t, err)

			wantHash := hashutil.ShortHash([]byte(testItem().URL), tt.hashAlgo, 12)
			assert.Equal(t, wantHash, result.URLHash())
			assert.Equal(t, filepath.Join(dir, wantHash+tt.ext), result.Path())

			written, readErr := os.ReadFile(result.Path())
			require.NoError(t, readErr)
			assert.Equal(t, "# A Work\n", string(written))
			assert.Empty(t, mockSink.errorCauses)
		})
	}
}

func TestLocalSink_Write_Overwrites(t *testing.T) {
	dir := t.TempDir()
	sink := storage.NewLocalSink(&metadataSinkMock{}, hashutil.HashAlgoBLAKE3)

	first, err := sink.Write(dir, testItem(), []byte("first"), ".md")
	require.Nil(t, err)
	second, err := sink.Write(dir, testItem(), []byte("second"), ".md")
	require.Nil(t, err)

	assert.Equal(t, first.Path(), second.Path())
	written, readErr := os.ReadFile(second.Path())
	require.NoError(t, readErr)
	assert.Equal(t, "second", string(written))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1)
}

func TestLocalSink_Write_MissingURL(t *testing.T) {
	mockSink := &metadataSinkMock{}
	sink := storage.NewLocalSink(mockSink, hashutil.HashAlgoBLAKE3)

	_, err := sink.Write(t.TempDir(), catalog.Item{Title: "No URL"}, []byte("x"), ".md")
	require.NotNil(t, err)

	var storageErr *storage.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.ErrCauseMissingURL, storageErr.Cause)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseInvariantViolation}, mockSink.errorCauses)
}

func TestLocalSink_Write_DirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	mockSink := &metadataSinkMock{}
	sink := storage.NewLocalSink(mockSink, hashutil.HashAlgoBLAKE3)

	_, err := sink.Write(blocker, testItem(), []byte("x"), ".md")
	require.NotNil(t, err)

	var storageErr *storage.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.ErrCausePathError, storageErr.Cause)
	assert.Equal(t, blocker, storageErr.Path)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseStorageFailure}, mockSink.errorCauses)
}
