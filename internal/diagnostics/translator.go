package diagnostics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("glslls.diagnostics")

// Source tags every published diagnostic with the component it came from.
const Source = "glslang"

// glslang reports issues as `SEVERITY: 0:LINE: MESSAGE` where LINE is
// 1-based and the 0 names the shader's single logical file. Banner and
// summary lines do not match and are skipped. When the message carries a
// quoted identifier, its position on the source line gives a precise span.
var (
	logLinePattern    = regexp.MustCompile(`^(\w+): 0:(\d+): (.*)$`)
	identifierPattern = regexp.MustCompile(`'(.*)' : (.*)`)
)

// Translate scrapes a compiler log into protocol diagnostics, ordered as
// they appear in the log. The result is never nil; an empty log (or one
// with only banner lines) yields an empty list.
func Translate(source, compilerLog string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	sourceLines := strings.Split(source, "\n")

	for _, logLine := range strings.Split(compilerLog, "\n") {
		match := logLinePattern.FindStringSubmatch(strings.TrimRight(logLine, "\r"))
		if match == nil {
			continue
		}

		// LSP lines are zero-indexed.
		lineNumber, err := strconv.Atoi(match[2])
		if err != nil {
			log.Warningf("skipping diagnostic with bad line number %q", match[2])
			continue
		}
		line := lineNumber - 1
		if line < 0 || line >= len(sourceLines) {
			log.Warningf("skipping diagnostic for line %d, source has %d lines", lineNumber, len(sourceLines))
			continue
		}

		message := strings.Trim(match[3], " ")
		start, end := span(message, sourceLines[line])
		sourceTag := Source
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(start)},
				End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(end)},
			},
			Severity: severity(match[1]),
			Source:   &sourceTag,
			Message:  message,
		})
	}
	return diagnostics
}

// severity maps a glslang severity token onto the protocol enumeration. An
// unrecognized token keeps the diagnostic but leaves the severity to the
// client, since inventing one would misreport the compiler.
func severity(token string) *protocol.DiagnosticSeverity {
	switch token {
	case "ERROR":
		s := protocol.DiagnosticSeverityError
		return &s
	case "WARNING":
		s := protocol.DiagnosticSeverityWarning
		return &s
	}
	log.Warningf("unknown severity %q in compiler log", token)
	return nil
}

// span recovers the character range of a diagnostic on its source line.
// Messages of the form `'identifier' : detail` point at the identifier's
// first occurrence; everything else spans the whole line. glslang also
// emits empty quoted identifiers (`'' : compilation terminated`), which
// carry no position and take the full-line fallback too.
func span(message, sourceLine string) (int, int) {
	if match := identifierPattern.FindStringSubmatch(message); match != nil && match[1] != "" {
		if pos := strings.Index(sourceLine, match[1]); pos >= 0 {
			return pos, pos + len(match[1]) - 1
		}
	}
	return 0, len(sourceLine)
}
