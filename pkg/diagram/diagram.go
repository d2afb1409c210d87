// Package diagram renders the pipeline graph as a Mermaid flowchart:
// steps as process nodes, artifact patterns as data nodes between them.
package diagram

import (
	"fmt"
	"strings"

	"github.com/composable-science/cli/pkg/pipeline"
)

// DefaultFileName is where cs diagram writes its output.
const DefaultFileName = "pipeline.mmd"

// Mermaid renders the graph. Steps appear in topological order so the
// source reads top to bottom like the build itself.
func Mermaid(g *pipeline.Graph) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	artifactIDs := map[string]string{}
	artifactID := func(pattern string) string {
		if id, ok := artifactIDs[pattern]; ok {
			return id
		}
		id := fmt.Sprintf("a%d", len(artifactIDs))
		artifactIDs[pattern] = id
		fmt.Fprintf(&b, "    %s[/\"%s\"/]\n", id, escape(pattern))
		return id
	}

	for _, name := range g.Order() {
		step, _ := g.Step(name)
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", stepID(name), escape(name))

		for _, in := range step.InputPatterns {
			fmt.Fprintf(&b, "    %s --> %s\n", artifactID(string(in)), stepID(name))
		}
		for _, out := range step.OutputPatterns {
			fmt.Fprintf(&b, "    %s --> %s\n", stepID(name), artifactID(string(out)))
		}
	}

	return b.String()
}

func stepID(name string) string {
	return "s_" + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
