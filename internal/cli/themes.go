package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Kevin-nav/sankosides-sub000/pkg/render/citation"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/code"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/diagram"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/nodelink"
)

// previewSource is highlighted in the theme picker.
const previewSource = `// Fourier series of a square wave
func square(t float64, n int) float64 {
	sum := 0.0
	for k := 1; k <= n; k += 2 {
		sum += math.Sin(float64(k)*t) / float64(k)
	}
	return 4 / math.Pi * sum
}`

const previewLanguage = "go"

// themesCommand lists the themes and styles each renderer accepts.
func (c *CLI) themesCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List diagram themes, code themes, citation styles and graph layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			registry := code.NewRegistry(cfg.Code.Languages, cfg.Code.DefaultTheme)
			w := cmd.OutOrStdout()

			if interactive {
				return pickCodeTheme(cmd, registry)
			}

			formatter, err := citation.NewFormatter(cfg.Citation.DefaultStyle)
			if err != nil {
				return err
			}
			printList(w, "Diagram themes", diagram.Themes, cfg.Diagram.DefaultTheme)
			printList(w, "Code themes", registry.Themes(), registry.DefaultTheme())
			printList(w, "Citation styles", formatter.Styles(), formatter.DefaultStyle())
			printList(w, "Graph layouts", nodelink.Layouts(), nodelink.LayoutDot)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a code theme with a live preview")
	return cmd
}

// printList prints names on wrapped lines, marking the default.
func printList(w io.Writer, title string, names []string, def string) {
	fmt.Fprintln(w, StyleTitle.Render(title)+" "+StyleDim.Render(fmt.Sprintf("(%d)", len(names))))
	parts := make([]string, len(names))
	for i, n := range names {
		if n == def {
			parts[i] = StyleHighlight.Render(n + "*")
		} else {
			parts[i] = n
		}
	}
	const perLine = 8
	for i := 0; i < len(parts); i += perLine {
		fmt.Fprintln(w, "  "+strings.Join(parts[i:min(i+perLine, len(parts))], ", "))
	}
	fmt.Fprintln(w)
}

func pickCodeTheme(cmd *cobra.Command, registry *code.Registry) error {
	m := NewThemePickerModel("Select Code Theme", registry.Themes(), registry.DefaultTheme(), codePreview(registry))
	final, err := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithOutput(cmd.ErrOrStderr())).Run()
	if err != nil {
		return err
	}
	picked := final.(ThemePickerModel).Selected
	if picked == "" {
		return nil
	}

	w := cmd.OutOrStdout()
	printSuccess(w, "Selected %s", StyleHighlight.Render(picked))
	printNextStep(w, "Make it the default", "SANKORENDER_CODE_DEFAULT_THEME="+picked)
	return nil
}

// codePreview highlights previewSource for the terminal in a given theme.
func codePreview(registry *code.Registry) func(string) string {
	lexer, ok := registry.Lexer(previewLanguage)
	return func(theme string) string {
		style, found := registry.Theme(theme)
		if !ok || !found {
			return previewSource
		}
		it, err := lexer.Tokenise(nil, previewSource)
		if err != nil {
			return previewSource
		}
		var b strings.Builder
		if err := formatters.TTY256.Format(&b, style, it); err != nil {
			return previewSource
		}
		return b.String()
	}
}
