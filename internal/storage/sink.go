package storage

import (
	"errors"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
	"github.com/rohmanhakim/fic-roulette/pkg/fileutil"
	"github.com/rohmanhakim/fic-roulette/pkg/hashutil"
)

/*
Responsibilities
- Save a picked work's rendered card to disk
- Ensure deterministic filenames

Output Characteristics
- One file per work, named by the hash of its URL
- Idempotent writes: saving the same work twice overwrites
*/

const urlHashLength = 12

type Sink interface {
	Write(
		outputDir string,
		item catalog.Item,
		content []byte,
		ext string,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
	hashAlgo     hashutil.HashAlgo
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
	hashAlgo hashutil.HashAlgo,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
		hashAlgo:     hashAlgo,
	}
}

// Write stores content as <outputDir>/<url hash><ext>.
func (s *LocalSink) Write(
	outputDir string,
	item catalog.Item,
	content []byte,
	ext string,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, item, content, ext, s.hashAlgo)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, item.URL),
				metadata.NewAttr(metadata.AttrPath, err.Path),
			},
		)
		return WriteResult{}, err
	}
	return writeResult, nil
}

func write(
	outputDir string,
	item catalog.Item,
	content []byte,
	ext string,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, *StorageError) {
	if item.URL == "" {
		return WriteResult{}, &StorageError{
			Message: "cannot name a file for a work without a url",
			Cause:   ErrCauseMissingURL,
		}
	}
	urlHash := hashutil.ShortHash([]byte(item.URL), hashAlgo, urlHashLength)

	if err := fileutil.EnsureDir(outputDir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCausePathError,
			Path:      outputDir,
		}
	}

	fullPath := filepath.Join(outputDir, urlHash+ext)
	if err := fileutil.WriteFileAtomic(fullPath, content, 0644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	return NewWriteResult(urlHash, fullPath), nil
}
