// Package source loads templates and models from local files or S3.
//
// A location is a local path, a file:// URL or an s3://bucket/key URL.
// Templates are parsed as HTML documents. Models are JSON or YAML documents
// with an object at the top level; the format follows the file extension,
// and YAML is tried when a document without one is not valid JSON.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vbind/internal/errors"
)

// S3API is the subset of the S3 client used by the loader.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader reads sources by location.
type Loader struct {
	s3      S3API
	maxSize int64
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithS3 sets the client used for s3:// locations.
func WithS3(client S3API) Option {
	return func(l *Loader) {
		l.s3 = client
	}
}

// WithMaxSize limits the number of bytes read from one source.
func WithMaxSize(n int64) Option {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// DefaultMaxSize is the default read limit of 8 MiB.
const DefaultMaxSize = 8 << 20

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "source")
	return l
}

// Read returns the raw bytes at loc.
func (l *Loader) Read(ctx context.Context, loc string) ([]byte, error) {
	scheme, target, err := split(loc)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch scheme {
	case "file":
		data, err = l.readFile(target)
	case "s3":
		data, err = l.readS3(ctx, target)
	default:
		return nil, errors.New("E411").WithNode(loc).WithDetail(fmt.Sprintf("Unsupported scheme %q.", scheme))
	}
	if err != nil {
		return nil, errors.FromError(err, "E410").WithNode(loc)
	}
	l.logger.Debug("read source", "location", loc, "bytes", len(data))
	return data, nil
}

// Template reads loc and parses it as an HTML document.
func (l *Loader) Template(ctx context.Context, loc string) (*html.Node, error) {
	data, err := l.Read(ctx, loc)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New("E410").WithNode(loc).WithDetail("The document could not be parsed as HTML.").Wrap(err)
	}
	return doc, nil
}

// Model reads loc and decodes it into a keyed model.
func (l *Loader) Model(ctx context.Context, loc string) (map[string]any, error) {
	data, err := l.Read(ctx, loc)
	if err != nil {
		return nil, err
	}
	m, err := Decode(data, FormatOf(loc))
	if err != nil {
		return nil, errors.FromError(err, "E412").WithNode(loc)
	}
	return m, nil
}

// Format is a model document format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatAuto Format = ""
)

// FormatOf returns the format implied by the extension of loc.
func FormatOf(loc string) Format {
	if u, err := url.Parse(loc); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		loc = u.Path
	}
	switch strings.ToLower(filepath.Ext(loc)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// Decode decodes a model document. The top level must be an object.
func Decode(data []byte, format Format) (map[string]any, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		m, err := decodeJSON(data)
		if err == nil {
			return m, nil
		}
		if m, yerr := decodeYAML(data); yerr == nil {
			return m, nil
		}
		return nil, err
	}
}

func decodeJSON(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.New("E412").Wrap(err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("E412").WithDetail(fmt.Sprintf("Top level is %T, not an object.", v))
	}
	return m, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.New("E412").Wrap(err)
	}
	m, ok := normalize(v).(map[string]any)
	if !ok {
		return nil, errors.New("E412").WithDetail(fmt.Sprintf("Top level is %T, not an object.", v))
	}
	return m, nil
}

// normalize turns YAML mappings with non-string keys into string keyed maps.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}

// split returns the scheme of loc and the path or bucket/key it names.
func split(loc string) (scheme, target string, err error) {
	if loc == "" {
		return "", "", errors.New("E410").WithDetail("The source location is empty.")
	}
	i := strings.Index(loc, "://")
	if i < 0 {
		return "file", loc, nil
	}
	u, perr := url.Parse(loc)
	if perr != nil {
		return "", "", errors.New("E411").Wrap(perr)
	}
	switch u.Scheme {
	case "file":
		return "file", u.Host + u.Path, nil
	case "s3":
		return "s3", u.Host + "/" + strings.TrimPrefix(u.Path, "/"), nil
	default:
		return u.Scheme, loc, nil
	}
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.readAll(f)
}

func (l *Loader) readS3(ctx context.Context, target string) ([]byte, error) {
	if l.s3 == nil {
		return nil, errors.New("E410").WithDetail("No S3 client is configured.")
	}
	bucket, key, ok := strings.Cut(target, "/")
	if !ok || bucket == "" || key == "" {
		return nil, errors.New("E411").WithDetail("S3 locations have the form s3://bucket/key.")
	}
	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return l.readAll(out.Body)
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	if l.maxSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxSize {
		return nil, fmt.Errorf("source exceeds %d bytes", l.maxSize)
	}
	return data, nil
}
