// Package archive persists auto-cancelled appointments to S3 so finance and
// support can audit what the hold monitor did long after the appointment
// document moved on.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ManifestEntry is one line of the monthly run manifest.
type ManifestEntry struct {
	RunID      string `json:"runId"`
	S3Key      string `json:"s3Key"`
	Count      int    `json:"count"`
	ArchivedAt string `json:"archivedAt"`
}

// Store archives cancellation runs as JSONL objects, one line per
// appointment, partitioned by date.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewStore creates an archive Store. If bucket is empty, all operations are
// no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ArchiveCancellations writes the run's cancelled appointments as one JSONL
// object and appends a line to the monthly manifest.
func (s *Store) ArchiveCancellations(ctx context.Context, cancelled []appointments.Appointment, now time.Time) error {
	if !s.Enabled() || len(cancelled) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range cancelled {
		if err := enc.Encode(&cancelled[i]); err != nil {
			return fmt.Errorf("archive: marshal appointment %s: %w", cancelled[i].ID, err)
		}
	}

	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	runID := uuid.NewString()
	s3Key := fmt.Sprintf("cancellations/v1/by-date/%d/%02d/%02d/%s.jsonl",
		now.Year(), now.Month(), now.Day(), runID)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", s3Key, err)
	}

	s.logger.Info("archived cancellation run",
		"s3_key", s3Key, "count", len(cancelled))

	entry := ManifestEntry{
		RunID:      runID,
		S3Key:      s3Key,
		Count:      len(cancelled),
		ArchivedAt: now.Format(time.RFC3339),
	}
	if err := s.appendManifest(ctx, entry, now); err != nil {
		// The run object is already durable, the manifest is a convenience.
		s.logger.Warn("failed to append manifest", "error", err, "s3_key", s3Key)
	}
	return nil
}

// appendManifest appends a JSONL line to the monthly manifest file.
// Read-modify-write since S3 does not support append.
func (s *Store) appendManifest(ctx context.Context, entry ManifestEntry, now time.Time) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	manifestKey := fmt.Sprintf("cancellations/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	if err != nil {
		if !isNotFoundErr(err) {
			return fmt.Errorf("archive: s3 get manifest: %w", err)
		}
	} else {
		existing, _ = io.ReadAll(getResp.Body)
		getResp.Body.Close()
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
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

// isNotFoundErr checks if the error is an S3 missing-object error. String
// check because errors.As with the S3 modeled types is unreliable across
// transport layers.
func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}
