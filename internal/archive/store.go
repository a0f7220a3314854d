package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store writes call records to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// RecordKey is the object key for a call archived at t.
func RecordKey(t time.Time, callSID string) string {
	return fmt.Sprintf("calls/v1/by-date/%d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), callSID)
}

// ManifestKey is the monthly manifest holding calls archived at t.
func ManifestKey(t time.Time) string {
	return fmt.Sprintf("calls/v1/manifests/%d-%02d.jsonl", t.Year(), t.Month())
}

// ArchiveCall writes record as JSON and appends it to the monthly manifest.
func (s *Store) ArchiveCall(ctx context.Context, record *CallRecord) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	now := record.ArchivedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	key := RecordKey(now, record.CallSID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archived call to S3",
		"call_sid", record.CallSID,
		"lead_id", record.LeadID,
		"s3_key", key,
		"outcome", record.Outcome,
	)

	entry := ManifestEntry{
		CallSID:    record.CallSID,
		LeadID:     record.LeadID,
		S3Key:      key,
		Industry:   record.Industry,
		Outcome:    record.Outcome,
		TurnCount:  record.TurnCount,
		ArchivedAt: now.Format(time.RFC3339),
	}
	if err := s.AppendManifest(ctx, now, entry); err != nil {
		// the record itself is already stored
		s.logger.Warn("failed to append manifest", "error", err, "call_sid", record.CallSID)
	}
	return nil
}

// AppendManifest appends a JSONL line to the manifest for month t.
// S3 has no append, so this is read-modify-write.
func (s *Store) AppendManifest(ctx context.Context, t time.Time, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	key := ManifestKey(t)

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", key)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var notFound *s3types.NotFound
	return errors.As(err, &notFound)
}
