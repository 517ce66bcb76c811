package tap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Static regexes for TAP line recognition.
var (
	versionRe   = regexp.MustCompile(`^TAP version \d+$`)
	planRe      = regexp.MustCompile(`^(\d+)\.\.(\d+)(?:\s*#\s*(.*))?$`)
	testLineRe  = regexp.MustCompile(`^(not ok|ok)\b\s*(\d+)?(.*)$`)
	directiveRe = regexp.MustCompile(`(?i)^(skip\S*|todo\S*)(?:\s+(.*))?$`)
	bailOutRe   = regexp.MustCompile(`^Bail out!\s*(.*)$`)
)

// maxLineSize bounds a single TAP line. Base64 attachments are usually
// embedded as one long YAML scalar.
const maxLineSize = 64 * 1024 * 1024

// Options controls how TAP text is turned into a result tree.
type Options struct {
	// EnableSubtests nests indented TAP streams under their owning result.
	// When disabled, indented lines other than YAML blocks are ignored.
	EnableSubtests bool
	// PlanRequired makes a stream without a top-level plan a parse error.
	PlanRequired bool
	// RemoveYAMLIfCorrupted drops undecodable YAML blocks instead of
	// failing the whole stream.
	RemoveYAMLIfCorrupted bool
}

// DefaultOptions returns the reader defaults: subtests on, plan required.
func DefaultOptions() Options {
	return Options{
		EnableSubtests: true,
		PlanRequired:   true,
	}
}

// ParseError describes why a TAP stream could not be read.
type ParseError struct {
	Line    int // 1-based; 0 when the error concerns the whole stream
	Message string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parser reads TAP 13/14 streams.
type Parser struct {
	opts Options
}

// NewParser creates a parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "tap"
}

// Options returns the options the parser was created with.
func (p *Parser) Options() Options {
	return p.opts
}

// ParseFile reads and parses a TAP file.
func (p *Parser) ParseFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return p.Parse(f)
}

// ParseString parses TAP text.
func (p *Parser) ParseString(s string) (*Set, error) {
	return p.Parse(strings.NewReader(s))
}

// frame is one nesting level of the stream being read.
type frame struct {
	indent  int
	set     *Set
	last    *Node
	pending *Set // completed subtest waiting for its owning result
}

// yamlBlock collects the lines of a diagnostic block.
type yamlBlock struct {
	node   *Node
	indent int
	start  int
	lines  []string
}

// Parse reads a TAP stream into a result tree.
//
// Indented lines form a subtest. A subtest is attached to the next result
// at the enclosing level; a subtest with no following result is attached to
// the preceding one.
func (p *Parser) Parse(r io.Reader) (*Set, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	root := &frame{indent: -1, set: &Set{}}
	stack := []*frame{root}
	var block *yamlBlock

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if block != nil {
			if strings.TrimSpace(line) == "..." {
				if err := p.finishYAML(block); err != nil {
					return nil, err
				}
				block = nil
				continue
			}
			block.lines = append(block.lines, dedent(line, block.indent))
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		indent, body := splitIndent(line)
		if root.indent < 0 {
			root.indent = indent
		}

		top := stack[len(stack)-1]
		if body == "---" && indent > top.indent && top.last != nil && top.pending == nil && top.last.Diagnostic == nil {
			block = &yamlBlock{node: top.last, indent: indent, start: lineNo}
			continue
		}

		for len(stack) > 1 && indent < top.indent {
			stack = closeFrame(stack)
			top = stack[len(stack)-1]
		}
		if indent > top.indent {
			if !p.opts.EnableSubtests {
				continue
			}
			top = &frame{indent: indent, set: &Set{}}
			stack = append(stack, top)
		}

		if err := p.readLine(top, body, lineNo); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read TAP stream: %w", err)
	}

	if block != nil {
		if !p.opts.RemoveYAMLIfCorrupted {
			return nil, &ParseError{Line: block.start, Message: "unterminated YAML diagnostic block"}
		}
	}

	for len(stack) > 1 {
		stack = closeFrame(stack)
	}
	flushPending(root)

	if p.opts.PlanRequired && root.set.Plan == nil {
		return nil, &ParseError{Message: "missing TAP plan"}
	}

	return root.set, nil
}

func (p *Parser) readLine(f *frame, body string, lineNo int) error {
	switch {
	case versionRe.MatchString(body):
		return nil

	case strings.HasPrefix(body, "pragma "):
		return nil

	case strings.HasPrefix(body, "#"):
		if f.last != nil {
			text := strings.TrimSpace(strings.TrimPrefix(body, "#"))
			f.last.Comments = append(f.last.Comments, Comment{Text: text})
		}
		return nil
	}

	if m := bailOutRe.FindStringSubmatch(body); m != nil {
		f.set.BailOuts++
		return nil
	}

	if m := planRe.FindStringSubmatch(body); m != nil {
		if f.set.Plan != nil {
			return &ParseError{Line: lineNo, Message: "duplicate plan"}
		}
		plan, err := parsePlan(m)
		if err != nil {
			return &ParseError{Line: lineNo, Message: err.Error()}
		}
		f.set.Plan = plan
		return nil
	}

	if m := testLineRe.FindStringSubmatch(body); m != nil {
		node, err := parseTestLine(m, len(f.set.Results)+1)
		if err != nil {
			return &ParseError{Line: lineNo, Message: err.Error()}
		}
		if f.pending != nil {
			node.Subtest = f.pending
			f.pending = nil
		}
		f.set.Results = append(f.set.Results, node)
		f.last = node
		return nil
	}

	// Unknown lines are ignored, as TAP consumers are required to do.
	return nil
}

func (p *Parser) finishYAML(b *yamlBlock) error {
	diag, err := decodeDiagnostic(strings.Join(b.lines, "\n"))
	if err != nil {
		if p.opts.RemoveYAMLIfCorrupted {
			return nil
		}
		return &ParseError{Line: b.start, Message: fmt.Sprintf("invalid YAML diagnostic: %v", err)}
	}
	b.node.Diagnostic = diag
	return nil
}

func parsePlan(m []string) (*Plan, error) {
	initial, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid plan start %q", m[1])
	}
	last, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("invalid plan end %q", m[2])
	}
	plan := &Plan{Initial: initial, Last: last}
	if last == 0 {
		plan.SkipAll = true
	}
	if d := directiveRe.FindStringSubmatch(strings.TrimSpace(m[3])); d != nil && strings.HasPrefix(strings.ToLower(d[1]), "skip") {
		plan.SkipAll = true
		plan.Reason = strings.TrimSpace(d[2])
	}
	return plan, nil
}

func parseTestLine(m []string, next int) (*Node, error) {
	node := &Node{Number: next}
	if m[1] == "not ok" {
		node.Status = StatusNotOK
	}
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("invalid test number %q", m[2])
		}
		node.Number = n
	}

	desc, rest, hasComment := splitComment(m[3])
	node.Description = strings.TrimSpace(desc)
	if !hasComment {
		return node, nil
	}

	rest = strings.TrimSpace(rest)
	if d := directiveRe.FindStringSubmatch(rest); d != nil {
		kind := DirectiveTodo
		if strings.HasPrefix(strings.ToLower(d[1]), "skip") {
			kind = DirectiveSkip
		}
		node.Directive = &Directive{Kind: kind, Reason: strings.TrimSpace(d[2])}
		return node, nil
	}
	if rest != "" {
		node.Comments = append(node.Comments, Comment{Text: rest, Inline: true})
	}
	return node, nil
}

// splitComment splits s at the first unescaped '#', unescaping "\#" in the
// description part.
func splitComment(s string) (desc, rest string, ok bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '#' {
			b.WriteByte('#')
			i++
			continue
		}
		if c == '#' {
			return b.String(), s[i+1:], true
		}
		b.WriteByte(c)
	}
	return b.String(), "", false
}

// closeFrame pops the innermost frame and hands its set to the parent as a
// pending subtest.
func closeFrame(stack []*frame) []*frame {
	child := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	flushPending(child)

	parent := stack[len(stack)-1]
	flushPending(parent)
	parent.pending = child.set
	return stack
}

// flushPending attaches a pending subtest to the preceding result, or drops
// it when there is none.
func flushPending(f *frame) {
	if f.pending == nil {
		return
	}
	if f.last != nil && f.last.Subtest == nil {
		f.last.Subtest = f.pending
	}
	f.pending = nil
}

func splitIndent(line string) (int, string) {
	indent := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			indent++
		case '\t':
			indent += 4
		default:
			return indent, strings.TrimRight(line[i:], " \t")
		}
	}
	return indent, ""
}

func dedent(line string, n int) string {
	i := 0
	for i < len(line) && i < n && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[i:]
}
