package accountmgr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Handler receives the structural events of a tokenized document in order.
type Handler interface {
	StartElement(el *xml.StartElement) error
	Characters(text []byte, offset, length int) error
	EndElement(el *xml.EndElement) error
}

type ErrorType string

const (
	ErrInvalidArgument ErrorType = "invalid_argument"
	ErrDecode          ErrorType = "decode_error"
	ErrValidate        ErrorType = "validation_error"
)

// Error wraps argument, decoding and validation failures with context and type.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsErrorType reports whether err carries an *Error of type t anywhere in its chain.
func IsErrorType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

func invalidArgument(msg string) error {
	return &Error{Type: ErrInvalidArgument, Message: msg}
}

// ParseOptions controls tokenizer leniency and post-parse checks.
type ParseOptions struct {
	// Lenient disables encoding/xml strict mode and accepts HTML entities and
	// auto-closed HTML void elements inside descriptions.
	Lenient bool
	// Validate runs Validate over the parsed list and fails with ErrValidate.
	Validate bool
	// Logger receives debug entries for discarded elements. Nil disables logging.
	Logger *zap.Logger
}

var defaultParseOptions = ParseOptions{}
var lenientParseOptions = ParseOptions{Lenient: true}
var strictParseOptions = ParseOptions{Validate: true}

// ListParser assembles account managers from start/characters/end events.
//
// A record is opened by <account_manager> and appended to the result when the
// matching end tag arrives and the record has a name. Field text is committed
// only when the end tag equals the leaf tag that is currently open; any other
// end tag drops the buffered text. One ListParser handles one event stream and
// is not safe for concurrent use. The zero value is ready to use.
type ListParser struct {
	result  []AccountManager
	current *Builder

	elementStarted bool
	open           string
	text           bytes.Buffer

	log *zap.Logger
}

var _ Handler = (*ListParser)(nil)

// Option configures a ListParser.
type Option func(*ListParser)

// WithLogger routes debug entries about discarded elements to l.
func WithLogger(l *zap.Logger) Option {
	return func(p *ListParser) {
		if l != nil {
			p.log = l
		}
	}
}

// NewListParser creates a parser with an empty result.
func NewListParser(opts ...Option) *ListParser {
	p := &ListParser{result: []AccountManager{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ListParser) logger() *zap.Logger {
	if p.log == nil {
		return zap.NewNop()
	}
	return p.log
}

// StartElement opens a record on <account_manager> and starts collecting text
// for any other element.
func (p *ListParser) StartElement(el *xml.StartElement) error {
	if el == nil {
		return invalidArgument("start element: nil element")
	}
	if el.Name.Local == TagAccountManager {
		if p.current != nil {
			p.logger().Debug("discarding unterminated account manager",
				zap.String("name", p.current.Build().Name))
		}
		p.current = NewBuilder()
		return nil
	}
	p.elementStarted = true
	p.open = el.Name.Local
	p.text.Reset()
	return nil
}

// Characters appends text[offset:offset+length] to the buffer of the open element.
func (p *ListParser) Characters(text []byte, offset, length int) error {
	if offset < 0 || length < 0 || offset > len(text)-length {
		return invalidArgument(fmt.Sprintf("characters: range [%d:+%d] outside %d bytes", offset, length, len(text)))
	}
	p.text.Write(text[offset : offset+length])
	return nil
}

// EndElement commits a field or a whole record, or discards buffered text for
// an end tag that does not close the open leaf. Committed field text has
// leading and trailing whitespace removed.
func (p *ListParser) EndElement(el *xml.EndElement) error {
	if el == nil {
		return invalidArgument("end element: nil element")
	}
	local := el.Name.Local
	if local == TagAccountManager {
		if p.current != nil {
			p.commit()
			p.current = nil
		}
		return nil
	}
	if p.current != nil && p.elementStarted && local == p.open &&
		p.current.Set(local, strings.TrimSpace(p.text.String())) {
		p.clearLeaf()
		return nil
	}
	if p.current != nil && p.elementStarted && IsField(p.open) {
		p.logger().Debug("discarding unterminated element",
			zap.String("open", p.open), zap.String("close", local))
	}
	p.clearLeaf()
	return nil
}

// Result returns a copy of the records completed so far. It is never nil.
func (p *ListParser) Result() []AccountManager {
	out := make([]AccountManager, len(p.result))
	copy(out, p.result)
	return out
}

func (p *ListParser) commit() {
	am := p.current.Build()
	if am.Name == "" {
		p.logger().Debug("discarding account manager without name", zap.String("url", am.URL))
		return
	}
	p.result = append(p.result, am)
}

func (p *ListParser) clearLeaf() {
	p.elementStarted = false
	p.open = ""
	p.text.Reset()
}

// Drive reads tokens from dec until end of input and forwards element and
// character events to h. Decoder errors are returned as ErrDecode; handler
// errors are returned unchanged.
func Drive(dec *xml.Decoder, h Handler) error {
	if dec == nil || h == nil {
		return invalidArgument("drive: nil decoder or handler")
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return wrapXMLError(err, "parse account managers")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			err = h.StartElement(&t)
		case xml.CharData:
			err = h.Characters(t, 0, len(t))
		case xml.EndElement:
			err = h.EndElement(&t)
		}
		if err != nil {
			return err
		}
	}
}

// ParseString decodes an account manager list. An empty body yields an empty list.
func ParseString(body string) ([]AccountManager, error) {
	if body == "" {
		return []AccountManager{}, nil
	}
	return parseWithOptions(strings.NewReader(body), defaultParseOptions)
}

// ParseStringLenient decodes a list with the tokenizer in non-strict mode.
func ParseStringLenient(body string) ([]AccountManager, error) {
	if body == "" {
		return []AccountManager{}, nil
	}
	return parseWithOptions(strings.NewReader(body), lenientParseOptions)
}

// ParseStringStrict decodes a list and validates it.
func ParseStringStrict(body string) ([]AccountManager, error) {
	if body == "" {
		return []AccountManager{}, nil
	}
	return parseWithOptions(strings.NewReader(body), strictParseOptions)
}

// ParseBytes decodes an account manager list. Nil or empty input yields an empty list.
func ParseBytes(body []byte) ([]AccountManager, error) {
	if len(body) == 0 {
		return []AccountManager{}, nil
	}
	return parseWithOptions(bytes.NewReader(body), defaultParseOptions)
}

// ParseReader decodes an account manager list from r. A nil reader yields an empty list.
func ParseReader(r io.Reader) ([]AccountManager, error) {
	return parseWithOptions(r, defaultParseOptions)
}

// ParseReaderWithOptions decodes an account manager list with the given options.
func ParseReaderWithOptions(r io.Reader, opts ParseOptions) ([]AccountManager, error) {
	return parseWithOptions(r, opts)
}

// ParseFile decodes an account manager list from the given file path.
func ParseFile(path string) ([]AccountManager, error) {
	return ParseFileWithOptions(path, defaultParseOptions)
}

// ParseFileWithOptions decodes a file with the given options.
func ParseFileWithOptions(path string, opts ParseOptions) ([]AccountManager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseWithOptions(f, opts)
}

func parseWithOptions(r io.Reader, opts ParseOptions) ([]AccountManager, error) {
	if r == nil {
		return []AccountManager{}, nil
	}
	dec := xml.NewDecoder(r)
	dec.Strict = !opts.Lenient
	if opts.Lenient {
		dec.AutoClose = xml.HTMLAutoClose
		dec.Entity = xml.HTMLEntity
	}
	p := NewListParser(WithLogger(opts.Logger))
	if err := Drive(dec, p); err != nil {
		return nil, err
	}
	list := p.Result()
	if opts.Validate {
		if err := Validate(list); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func wrapXMLError(err error, context string) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &Error{Type: ErrDecode, Message: fmt.Sprintf("%s (line %d)", context, se.Line), Err: err}
	}
	return &Error{Type: ErrDecode, Message: context, Err: err}
}

// EncodeOptions controls XML serialization.
type EncodeOptions struct {
	Indent        string // indentation; default "  "
	IncludeHeader bool   // emit xml.Header when true
	Compact       bool   // when true, disable indentation
}

type listXML struct {
	XMLName  xml.Name
	Managers []AccountManager `xml:"account_manager"`
}

// Encode writes list as a <projects> document of <account_manager> entries.
func Encode(w io.Writer, list []AccountManager) error {
	return EncodeWithOptions(w, list, EncodeOptions{Indent: "  ", IncludeHeader: true})
}

// EncodeWithOptions writes list with configurable formatting.
func EncodeWithOptions(w io.Writer, list []AccountManager, opts EncodeOptions) error {
	enc := xml.NewEncoder(w)
	if !opts.Compact {
		indent := opts.Indent
		if indent == "" {
			indent = "  "
		}
		enc.Indent("", indent)
	}
	if opts.IncludeHeader {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
	}
	if err := enc.Encode(listXML{XMLName: xml.Name{Local: TagList}, Managers: list}); err != nil {
		return err
	}
	return enc.Flush()
}
