package backend

import (
	"context"
	"fmt"

	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/models"
)

type uploadState int

const (
	stateUploading uploadState = iota
	stateDerivingPreview
	stateWritingRecord
	stateCleaningUp
	stateDone
	stateFailed
)

func (s uploadState) String() string {
	switch s {
	case stateUploading:
		return "uploading"
	case stateDerivingPreview:
		return "deriving-preview"
	case stateWritingRecord:
		return "writing-record"
	case stateCleaningUp:
		return "cleaning-up"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("uploadState(%d)", int(s))
	}
}

type imageRef struct {
	URL string
	ID  string
}

// imageUpload drives one upload → preview → record write sequence. A file
// uploaded by the sequence is deleted exactly once if a later step fails;
// previous, when set, is deleted exactly once after a successful write.
type imageUpload struct {
	svc      *Service
	op       string
	file     FileUpload
	previous string
	write    func(ctx context.Context, img imageRef) error

	state  uploadState
	stored *models.StoredFile
	image  imageRef
	err    error
}

func (w *imageUpload) transition(next uploadState) {
	log.Info.Printf("%s: %s -> %s", w.op, w.state, next)
	w.state = next
}

func (w *imageUpload) run(ctx context.Context) (imageRef, error) {
	for {
		switch w.state {
		case stateUploading:
			stored, err := w.svc.files.Upload(ctx, w.file)
			if err != nil {
				w.err = fmt.Errorf("%s: upload file: %w: %w", w.op, ErrBackend, err)
				w.transition(stateFailed)
				continue
			}
			w.stored = stored
			w.transition(stateDerivingPreview)

		case stateDerivingPreview:
			url, err := w.svc.files.PreviewURL(ctx, w.stored.ID, w.svc.preview)
			if err != nil || url == "" {
				if err == nil {
					err = fmt.Errorf("empty preview url for file %s", w.stored.ID)
				}
				w.err = fmt.Errorf("%s: derive preview: %w: %w", w.op, ErrBackend, err)
				w.transition(stateCleaningUp)
				continue
			}
			w.image = imageRef{URL: url, ID: w.stored.ID}
			w.transition(stateWritingRecord)

		case stateWritingRecord:
			if err := w.write(ctx, w.image); err != nil {
				w.err = fmt.Errorf("%s: write record: %w", w.op, err)
				w.transition(stateCleaningUp)
				continue
			}
			w.transition(stateDone)

		case stateCleaningUp:
			if err := w.svc.discardFile(ctx, w.stored.ID, w.op+": "+w.err.Error()); err != nil {
				w.err = fmt.Errorf("%w; %w", w.err, err)
			}
			w.transition(stateFailed)

		case stateDone:
			if w.previous != "" && w.previous != w.image.ID {
				if err := w.svc.discardFile(ctx, w.previous, w.op+": replaced"); err != nil {
					log.Warn.Printf("%s: %v", w.op, err)
				}
			}
			return w.image, nil

		case stateFailed:
			return imageRef{}, w.err
		}
	}
}

// discardFile issues a single delete for fileID. When the delete fails the
// file is recorded in the orphan ledger for the sweeper. Cleanup outlives
// a cancelled request context.
func (s *Service) discardFile(ctx context.Context, fileID, reason string) error {
	ctx = context.WithoutCancel(ctx)

	err := s.files.Delete(ctx, fileID)
	if err == nil {
		return nil
	}
	log.Warn.Printf("delete file %s failed, recording orphan: %v", fileID, err)

	orphan := &models.OrphanFile{FileID: fileID, Reason: reason, Attempts: 1}
	if err := s.store.RecordOrphan(ctx, orphan); err != nil {
		log.Error.Printf("record orphan file %s: %v", fileID, err)
	}
	return fmt.Errorf("delete file %s: %w: %w", fileID, ErrCompensationFailed, err)
}
