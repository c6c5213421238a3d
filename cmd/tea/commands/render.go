package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/tea/internal/app"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/ui/output"
	"go.trai.ch/tea/internal/ui/style"
)

func styled(out *termenv.Output, c, s string) string {
	return out.String(s).Foreground(out.Color(c)).String()
}

// renderPlan prints the plan in install order with each node's direct dependencies.
func renderPlan(w io.Writer, plan *domain.Plan) {
	out := output.New(w)
	for node := range plan.Walk() {
		line := styled(out, string(style.Leaf), style.Dot) + " " + node.String()
		if len(node.Dependencies) > 0 {
			deps := make([]string, 0, len(node.Dependencies))
			for _, dep := range node.Dependencies {
				deps = append(deps, dep.String())
			}
			line += styled(out, string(style.Slate), " "+style.Arrow+" "+strings.Join(deps, ", "))
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

// renderResult prints one line per planned node with its outcome.
func renderResult(w io.Writer, result *domain.InstallResult) {
	out := output.New(w)
	for _, o := range result.Outcomes {
		var icon, detail string
		switch o.Status {
		case domain.NodeStatusInstalled:
			icon, detail = styled(out, string(style.Green), style.Check), "installed"
			if o.Cached {
				detail += " (cached bottle)"
			}
		case domain.NodeStatusAlreadyInstalled:
			icon, detail = styled(out, string(style.Slate), style.Dot), "already installed"
		case domain.NodeStatusFailed:
			icon, detail = styled(out, string(style.Red), style.Cross), "failed"
		default:
			icon, detail = styled(out, string(style.Yellow), style.Warning), string(o.Status)
		}
		_, _ = fmt.Fprintf(w, "%s %s %s\n", icon, o.Node, styled(out, string(style.Slate), detail))
	}
}

func renderLinks(w io.Writer, result domain.LinkResult) {
	out := output.New(w)
	for _, l := range result.Linked {
		_, _ = fmt.Fprintf(w, "%s %s %s %s\n",
			styled(out, string(style.Green), style.Check), l.Shortcut,
			styled(out, string(style.Slate), style.Arrow), l.Entry)
	}
}

func renderUnlinked(w io.Writer, removed []domain.LinkEntry) {
	out := output.New(w)
	for _, l := range removed {
		_, _ = fmt.Fprintf(w, "%s %s\n", styled(out, string(style.Red), style.Cross), l.Shortcut)
	}
}

// renderList prints the installed versions, with the verification outcome when it was checked.
func renderList(w io.Writer, items []app.ListItem) {
	out := output.New(w)
	for _, item := range items {
		line := item.Entry.String()
		if item.Verified {
			if item.Intact {
				line = styled(out, string(style.Green), style.Check) + " " + line
			} else {
				line = styled(out, string(style.Red), style.Cross) + " " + line + styled(out, string(style.Red), " modified")
			}
		}
		_, _ = fmt.Fprintln(w, line+"  "+styled(out, string(style.Slate), item.Entry.Path))
	}
}
