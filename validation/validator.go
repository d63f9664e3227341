// Package validation implements the multi-stage upload check pipeline.
// Checks run in a fixed order, cheapest first, and fail fast; no storage I/O
// happens before the whole pipeline passes.
package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/formvault/document-storage-backend/interfaces"
)

// headerScanBytes is how much of the content the scan and signature stages
// inspect. The stream offset is restored afterward.
const headerScanBytes = 1024

// DefaultMaxSizeBytes caps uploads at 5 MiB.
const DefaultMaxSizeBytes = 5 * 1024 * 1024

// Defaults for identity document uploads. The configuration can override
// each list; these are the values the portal ships with.
var (
	DefaultAllowedMIMETypes  = []string{"image/jpeg", "image/png", "application/pdf"}
	DefaultAllowedExtensions = []string{"jpg", "jpeg", "png", "pdf"}

	// DefaultBannedPatterns match active or executable content that has no
	// business inside an image or PDF upload. Matched case-insensitively
	// within the first headerScanBytes.
	DefaultBannedPatterns = []string{
		"<script",
		"javascript:",
		"vbscript:",
		"onload=",
		"onerror=",
		"<?php",
		"<%",
		"exec(",
		"system(",
		"shell_exec(",
	}
)

// magicNumbers are the expected leading bytes per declared MIME type. A
// declared type with an entry here must match one of its signatures.
var magicNumbers = map[string][][]byte{
	"image/jpeg":      {{0xFF, 0xD8, 0xFF}},
	"image/png":       {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	"application/pdf": {[]byte("%PDF-")},
}

// Config holds the validator limits. Zero values fall back to the defaults.
type Config struct {
	MaxSizeBytes      int64
	AllowedMIMETypes  []string
	AllowedExtensions []string
	BannedPatterns    []string
}

// Validator checks upload candidates against size, type, content and
// signature rules. It is stateless and safe for concurrent use.
type Validator struct {
	maxSize     int64
	mimeTypes   []string
	extensions  []string
	mimeSet     map[string]struct{}
	extSet      map[string]struct{}
	patterns    [][]byte
	rawPatterns []string
	log         *slog.Logger
}

// New creates a validator from cfg, filling unset fields with defaults.
func New(cfg Config, log *slog.Logger) *Validator {
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = DefaultMaxSizeBytes
	}
	if len(cfg.AllowedMIMETypes) == 0 {
		cfg.AllowedMIMETypes = DefaultAllowedMIMETypes
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultAllowedExtensions
	}
	if len(cfg.BannedPatterns) == 0 {
		cfg.BannedPatterns = DefaultBannedPatterns
	}

	v := &Validator{
		maxSize:     cfg.MaxSizeBytes,
		mimeTypes:   append([]string(nil), cfg.AllowedMIMETypes...),
		extensions:  append([]string(nil), cfg.AllowedExtensions...),
		mimeSet:     make(map[string]struct{}, len(cfg.AllowedMIMETypes)),
		extSet:      make(map[string]struct{}, len(cfg.AllowedExtensions)),
		patterns:    make([][]byte, 0, len(cfg.BannedPatterns)),
		rawPatterns: append([]string(nil), cfg.BannedPatterns...),
		log:         log,
	}
	for _, mt := range cfg.AllowedMIMETypes {
		v.mimeSet[mt] = struct{}{}
	}
	for _, ext := range cfg.AllowedExtensions {
		v.extSet[ext] = struct{}{}
	}
	for _, p := range cfg.BannedPatterns {
		v.patterns = append(v.patterns, bytes.ToLower([]byte(p)))
	}
	return v
}

// Validate runs the pipeline: declared size, MIME allow-list, extension
// allow-list, header pattern scan, magic-number check. The first failing
// stage returns its ValidationError; the content offset is left where it
// was found.
func (v *Validator) Validate(candidate interfaces.UploadCandidate) error {
	if candidate.DeclaredSize > v.maxSize {
		return &interfaces.SizeExceededError{Max: v.maxSize, Actual: candidate.DeclaredSize}
	}

	if _, ok := v.mimeSet[candidate.DeclaredMIME]; !ok {
		return &interfaces.TypeNotAllowedError{Value: candidate.DeclaredMIME, Allowed: v.mimeTypes}
	}

	if candidate.Filename != "" {
		if _, ok := v.extSet[candidate.Ext()]; !ok {
			return &interfaces.TypeNotAllowedError{Value: candidate.Ext(), Allowed: v.extensions}
		}
	}

	header, err := readHeader(candidate.Content)
	if err != nil {
		return fmt.Errorf("failed to read upload header: %w", err)
	}

	if err := v.scanHeader(header, candidate.Filename); err != nil {
		return err
	}

	return v.checkSignature(header, candidate.DeclaredMIME, candidate.Filename)
}

// Rules returns the publicly exposable limits.
func (v *Validator) Rules() interfaces.ValidationRules {
	return interfaces.ValidationRules{
		MaxSizeBytes:      v.maxSize,
		AllowedMIMETypes:  append([]string(nil), v.mimeTypes...),
		AllowedExtensions: append([]string(nil), v.extensions...),
	}
}

// scanHeader matches the lower-cased header against the banned patterns.
func (v *Validator) scanHeader(header []byte, filename string) error {
	lowered := bytes.ToLower(header)
	for i, pattern := range v.patterns {
		if bytes.Contains(lowered, pattern) {
			v.log.Warn("Suspicious pattern detected in upload", "filename", filename, "pattern", v.rawPatterns[i])
			return &interfaces.MalwareSuspectedError{Pattern: v.rawPatterns[i]}
		}
	}
	return nil
}

// checkSignature compares the header bytes against the magic numbers
// expected for the declared MIME type. Types without a known signature
// pass through.
func (v *Validator) checkSignature(header []byte, declaredMIME, filename string) error {
	signatures, ok := magicNumbers[declaredMIME]
	if !ok {
		return nil
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig) {
			return nil
		}
	}
	v.log.Warn("File signature mismatch", "filename", filename, "declaredType", declaredMIME)
	return &interfaces.SignatureMismatchError{DeclaredType: declaredMIME}
}

// readHeader returns up to headerScanBytes from the start of r and restores
// the offset it found, keeping validation side-effect-free on the stream.
func readHeader(r io.ReadSeeker) ([]byte, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	header := make([]byte, headerScanBytes)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}

	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, err
	}
	return header[:n], nil
}
