// Package export writes finished trajectories as SVG documents and ships
// them to an output sink.
package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/vovakirdan/bubble-chamber/internal/core"
)

// DefaultStrokeWidth is used when a document does not set one.
const DefaultStrokeWidth = 3

// Document is one picture of the chamber.
type Document struct {
	Width, Height float64 // chamber size, used as the viewBox
	StrokeWidth   int
	Paths         [][]core.Point2
}

// WriteSVG renders doc as a black chamber with every path drawn in white.
func WriteSVG(w io.Writer, doc Document) error {
	if doc.Width <= 0 || doc.Height <= 0 {
		return fmt.Errorf("export: invalid chamber size %vx%v", doc.Width, doc.Height)
	}
	stroke := doc.StrokeWidth
	if stroke <= 0 {
		stroke = DefaultStrokeWidth
	}

	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)
	canvas.Startraw(
		fmt.Sprintf(`viewBox="0 0 %s %s"`, num(doc.Width), num(doc.Height)),
		`width="100%"`,
		`height="100%"`,
	)
	canvas.Rect(0, 0, int(math.Ceil(doc.Width)), int(math.Ceil(doc.Height)), "fill:black")

	style := fmt.Sprintf("fill:none;stroke:white;stroke-width:%d", stroke)
	for _, path := range doc.Paths {
		if d := PathData(path); d != "" {
			canvas.Path(d, style)
		}
	}
	canvas.End()

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export: write svg: %w", err)
	}
	return nil
}

// RenderSVG returns the SVG document as bytes.
func RenderSVG(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PathData builds the d attribute for a trajectory: a move to the first
// point, then cubic curves through the rest when they come in triples and
// straight lines otherwise. An empty trajectory yields "".
func PathData(points []core.Point2) string {
	if len(points) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("M")
	writePoint(&b, points[0])

	rest := points[1:]
	switch {
	case len(rest) == 0:
	case len(rest)%3 == 0:
		b.WriteString(" C")
		for _, p := range rest {
			writePoint(&b, p)
		}
	default:
		b.WriteString(" L")
		for _, p := range rest {
			writePoint(&b, p)
		}
	}
	return b.String()
}

func writePoint(b *strings.Builder, p core.Point2) {
	b.WriteByte(' ')
	b.WriteString(num(p.X))
	b.WriteByte(',')
	b.WriteString(num(p.Y))
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
