package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

type levelStyle struct {
	tag   string
	color *color.Color
}

var levelStyles = map[Level]levelStyle{
	LevelDebug: {"[DEBUG]", color.New(color.FgHiBlue)},
	LevelInfo:  {"[INFO]", color.New(color.FgHiCyan)},
	LevelWarn:  {"[WARN]", color.New(color.FgHiYellow)},
	LevelError: {"[ERROR]", color.New(color.FgHiRed)},
	LevelFatal: {"[FATAL]", color.New(color.FgHiRed, color.Bold)},
}

type rule struct {
	pattern string
	color   *color.Color
}

// highlight rules, first match wins on overlap; patterns must not capture
var highlightRules = []rule{
	{`(?i)\b(?:error|panic|failed|fail)\b`, color.New(color.FgHiRed)},
	{`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`, color.New(color.FgHiMagenta)},
	{`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`, color.New(color.FgHiBlue)},
	{`\b\d+(?:\.\d+)?(?:ms|s|m|h)\b`, color.New(color.FgHiYellow)},
	{`\b(?:GET|POST|PUT|DELETE|PATCH)\b`, color.New(color.FgBlue)},
	{`\b[45]\d{2}\b`, color.New(color.FgHiRed)},
	{`\b2\d{2}\b`, color.New(color.FgHiGreen)},
	{`\b(?:true|false)\b`, color.New(color.FgHiCyan)},
	{`(?i)\b(?:invited|verified|expired|saved|deleted|connected|started)\b`, color.New(color.FgHiGreen)},
	{`\[(?:Cooldown|Invite|Roster|Auth|Storage|Notify)\]`, color.New(color.FgHiCyan)},
}

var (
	combinedRegex *regexp.Regexp
	colorMap      []*color.Color
	minLevel      = LevelDebug
	levelMu       sync.RWMutex
	out           io.Writer = os.Stdout
	builderPool             = sync.Pool{New: func() interface{} { return new(strings.Builder) }}
)

// colorWriter is the output target of the stdlib logger
type colorWriter struct{}

func (cw *colorWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	level, msg := splitLevel(msg)

	levelMu.RLock()
	skip := level < minLevel
	levelMu.RUnlock()
	if skip {
		return len(p), nil
	}

	// caller frame: log.Printf -> Output -> Write plus our helper
	_, file, line, ok := runtime.Caller(4)
	if !ok {
		file = "???"
	}

	sb := builderPool.Get().(*strings.Builder)
	defer builderPool.Put(sb)
	sb.Reset()

	prefix := fmt.Sprintf("%s %s:%d", time.Now().Format("2006/01/02 15:04:05.000"), filepath.Base(file), line)
	sb.WriteString(color.New(color.FgHiBlue).Sprint(prefix))
	sb.WriteByte(' ')
	style := levelStyles[level]
	sb.WriteString(style.color.Sprint(style.tag))
	sb.WriteByte(' ')
	sb.WriteString(highlight(msg))
	sb.WriteByte('\n')

	_, _ = io.WriteString(out, sb.String())
	return len(p), nil
}

// splitLevel strips a leading level tag; untagged lines are INFO
func splitLevel(msg string) (Level, string) {
	for level, style := range levelStyles {
		if strings.HasPrefix(msg, style.tag) {
			return level, strings.TrimSpace(strings.TrimPrefix(msg, style.tag))
		}
	}
	return LevelInfo, msg
}

// highlight colors every rule hit in one pass of the combined regex
func highlight(msg string) string {
	matches := combinedRegex.FindAllStringSubmatchIndex(msg, -1)
	if len(matches) == 0 {
		return msg
	}

	type span struct {
		start, end int
		color      *color.Color
	}
	var spans []span
	for _, m := range matches {
		for i := 0; i < len(colorMap); i++ {
			start, end := m[2+2*i], m[3+2*i]
			if start >= 0 && end >= 0 {
				spans = append(spans, span{start, end, colorMap[i]})
				break
			}
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	b.Grow(len(msg))
	cur := 0
	for _, s := range spans {
		if s.start < cur {
			continue
		}
		b.WriteString(msg[cur:s.start])
		b.WriteString(s.color.Sprint(msg[s.start:s.end]))
		cur = s.end
	}
	b.WriteString(msg[cur:])
	return b.String()
}

func init() {
	var sb strings.Builder
	colorMap = make([]*color.Color, 0, len(highlightRules))
	for i, r := range highlightRules {
		if i > 0 {
			sb.WriteByte('|')
		}
		// capture group i maps to colorMap[i]
		sb.WriteString("(")
		sb.WriteString(r.pattern)
		sb.WriteString(")")
		colorMap = append(colorMap, r.color)
	}
	combinedRegex = regexp.MustCompile(sb.String())

	log.SetOutput(&colorWriter{})
	log.SetFlags(0)
}

// SetLevel drops messages below level
func SetLevel(level Level) {
	levelMu.Lock()
	minLevel = level
	levelMu.Unlock()
}

// ParseLevel maps debug/info/warn/error to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(format string, v ...interface{}) {
	log.Printf("[DEBUG] "+format, v...)
}

func Info(format string, v ...interface{}) {
	log.Printf("[INFO] "+format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Printf("[WARN] "+format, v...)
}

func Error(format string, v ...interface{}) {
	log.Printf("[ERROR] "+format, v...)
}

func Fatal(format string, v ...interface{}) {
	log.Printf("[FATAL] "+format, v...)
	os.Exit(1)
}
