package lang

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/jammy/lang/lexer"
	"github.com/ardnew/jammy/lang/luagen"
	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/log"
	"github.com/ardnew/jammy/pkg"
)

// headerTag opens the import parameters a module may declare before its
// first statement:
//
//	--[ import_parameters { "exports": ["x"], "append": "x.init()" } ]
const headerTag = "--[ import_parameters"

// Metadata describes what a module binds in the units that use it.
type Metadata struct {
	// Exports lists the exported names, those of the header first. It is
	// nil if the module is not jammy source.
	Exports []string `yaml:"exports,omitempty" json:"exports,omitempty"`
	// Append is Lua source emitted after each import of the module.
	Append string `yaml:"append,omitempty" json:"append,omitempty"`
	// Jammy constrains the compiler version that may use the module.
	Jammy string `yaml:"jammy,omitempty" json:"jammy,omitempty"`
}

// Cache memoizes module metadata by resolved path. An entry is rebuilt
// when the content of its file changes. A Cache is safe for concurrent use.
type Cache struct {
	std    string
	logger log.Logger

	// entries stores metadata keyed by (path:content_hash).
	entries sync.Map

	// registry maps each path to its current entry key.
	registry sync.Map
}

// state tracks the metadata of one version of a module.
type state struct {
	once sync.Once
	meta Metadata
	err  error
}

// CacheOption configures a [Cache].
type CacheOption func(*Cache)

// WithStdDir sets the directory that holds the modules under "std/".
func WithStdDir(dir string) CacheOption {
	return func(c *Cache) { c.std = dir }
}

// WithCacheLogger sets the logger that receives cache events.
func WithCacheLogger(logger log.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// NewCache returns an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{std: "."}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Resolve returns the file a "use" statement in directory dir refers to.
func (c *Cache) Resolve(dir, path string) string {
	path = filepath.FromSlash(strings.ReplaceAll(path, `\`, "/"))
	if strings.HasPrefix(path, "std"+string(filepath.Separator)) {
		return filepath.Join(c.std, path)
	}

	return filepath.Join(dir, path)
}

// Load returns the metadata of the module at path. Files without the
// source extension have empty metadata.
func (c *Cache) Load(path string) (Metadata, error) {
	if filepath.Ext(path) != pkg.Extension {
		return Metadata{}, nil
	}

	src, err := ReadFile(path)
	if err != nil {
		return Metadata{}, ErrImport.Wrap(err).With(slog.String("path", path))
	}

	hash := xxh3.HashString(src)
	key := path + ":" + strconv.FormatUint(hash, 36)

	if prev, ok := c.registry.Swap(path, key); ok && prev != key {
		c.entries.Delete(prev)
	}

	value, hit := c.entries.LoadOrStore(key, new(state))
	st := value.(*state)

	c.logger.Trace(
		"cache lookup",
		slog.String("path", path),
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit),
	)

	st.once.Do(func() {
		st.meta, st.err = parseMetadata(src)
		if st.err == nil {
			st.err = checkVersion(st.meta.Jammy)
		}

		if st.err != nil {
			st.err = WrapError(st.err).With(slog.String("path", path))
		}
	})

	meta := st.meta
	meta.Exports = slices.Clone(meta.Exports)

	return meta, st.err
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.entries.Clear()
	c.registry.Clear()
}

// Imports returns the view of c used to compile units in directory dir.
func (c *Cache) Imports(dir string) *Imports {
	return &Imports{cache: c, dir: dir}
}

// Imports resolves the modules used by the units of one directory. It
// serves both the checker and the code generator.
type Imports struct {
	cache *Cache
	dir   string
}

// Exports implements [infer.Resolver].
func (m *Imports) Exports(path string) ([]string, error) {
	meta, err := m.cache.Load(m.cache.Resolve(m.dir, path))
	if err != nil {
		return nil, err
	}

	return meta.Exports, nil
}

// Import implements [luagen.Importer].
func (m *Imports) Import(path string) (luagen.Import, error) {
	meta, err := m.cache.Load(m.cache.Resolve(m.dir, path))
	if err != nil {
		return luagen.Import{}, err
	}

	return luagen.Import{Exports: meta.Exports, Append: meta.Append}, nil
}

func checkVersion(constraint string) error {
	if constraint == "" {
		return nil
	}

	ok, err := pkg.Satisfies(constraint)
	if err != nil {
		return ErrVersion.Wrap(err)
	}

	if !ok {
		return ErrVersion.Wrap(fmt.Errorf("module requires %s %s, have %s",
			pkg.Name, constraint, strings.TrimSpace(pkg.Version)))
	}

	return nil
}

// parseMetadata decodes the header of a module and appends the names its
// export statements bind. The header is JSON, which go-yaml accepts.
func parseMetadata(src string) (Metadata, error) {
	var meta Metadata

	header, body := SplitHeader(src)
	if header != "" {
		if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
			return Metadata{}, ErrImport.Wrap(err)
		}
	}

	// A module that does not lex still reports the exports that precede
	// the error.
	exports, typechecks := scanExports(lexer.Lex(body).Value)

	meta.Exports = append(meta.Exports, exports...)
	if typechecks {
		meta.Exports = append(meta.Exports, "typechecks")
	}

	if meta.Exports == nil {
		meta.Exports = []string{}
	}

	return meta, nil
}

// SplitHeader separates the import parameters of a module from its body.
// The header text between the tag and its closing bracket is returned
// without them. The body has the header blanked out, so that positions in
// it match src.
func SplitHeader(src string) (header, body string) {
	start := len(src) - len(strings.TrimLeft(src, " \t\r\n"))
	if !strings.HasPrefix(src[start:], headerTag) {
		return "", src
	}

	depth, i := 1, start+len(headerTag)
	for ; i < len(src) && depth > 0; i++ {
		switch src[i] {
		case '[':
			depth++
		case ']':
			depth--
		}
	}

	end := i
	if depth == 0 {
		header = src[start+len(headerTag) : end-1]
	} else {
		header = src[start+len(headerTag):]
	}

	blank := []byte(src[:end])
	for j := start; j < end; j++ {
		if blank[j] != '\n' && blank[j] != '\r' {
			blank[j] = ' '
		}
	}

	return strings.TrimSpace(header), string(blank) + src[end:]
}

// scanExports finds the export statements of a module by scanning its
// tokens, without parsing. It reports whether an exported name is a
// prototype, whose instances are checked through the module's typechecks.
func scanExports(toks []token.Token) (exports []string, typechecks bool) {
	var protos []string

	ident := func(i int) bool { return i < len(toks) && toks[i].Kind == token.Ident }

	for i := 0; i < len(toks); {
		switch {
		case toks[i].Is("export") && ident(i+1):
			name := toks[i+1].Value
			as := name
			i += 2

			if i < len(toks) && toks[i].Is("as") && ident(i+1) {
				as = toks[i+1].Value
				i += 2
			}

			if slices.Contains(protos, name) {
				typechecks = true
			}

			exports = append(exports, as)

		case toks[i].Is("prototype") && ident(i+1):
			protos = append(protos, toks[i+1].Value)
			i += 2

		default:
			for i < len(toks) && toks[i].Kind != token.Semicolon && toks[i].Kind != token.EOF {
				i++
			}

			i++
		}
	}

	return exports, typechecks
}

// ReadFile returns the contents of the file at path.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ErrReadInput.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	return Read(f)
}

// Read returns everything r yields. The reader is drained through an
// asynchronous read-ahead buffer.
func Read(r io.Reader) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err)
	}

	return string(data), nil
}
