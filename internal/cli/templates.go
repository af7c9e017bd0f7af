package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/memento/internal/sequence"
)

// TemplateReport is the validation result of one template file.
type TemplateReport struct {
	File     string `json:"file"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
	NTargets int    `json:"nTargets,omitempty"`
	NFillers int    `json:"nFillers,omitempty"`
	Slots    int    `json:"slots,omitempty"`
	LongLags int    `json:"longLags"`
}

// TemplatesResult is the output of templates validate.
type TemplatesResult struct {
	Dir     string           `json:"dir"`
	Valid   int              `json:"valid"`
	Invalid int              `json:"invalid"`
	Files   []TemplateReport `json:"files"`
}

// NewTemplatesCommand creates the templates command group.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect level template files",
	}
	cmd.AddCommand(newTemplatesValidateCommand(rootOpts))
	return cmd
}

func newTemplatesValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate every template in a directory",
		Long: `Validate every .json, .yaml and .yml template in a directory.

Without an argument the configured template directory is used
(template_dir plus level_templates or short_level_templates).
Each file also reports how many targets have a long lag
(at least 150 positions between a target and its repeat).

Exits with status 1 if any template is invalid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runTemplatesValidate(cmd, rootOpts, dir)
		},
	}
}

func runTemplatesValidate(cmd *cobra.Command, opts *RootOptions, dir string) error {
	out := newFormatter(cmd, opts)

	if dir == "" {
		cfg, err := loadConfig(cmd, opts)
		if err != nil {
			return err
		}
		dir = sequence.NewLoader(cfg.TemplateDir, cfg.UseShortSequence, 0).Dir()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		_ = out.Error(CodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read template directory", err)
	}

	res := TemplatesResult{Dir: dir, Files: []TemplateReport{}}
	for _, e := range entries {
		if e.IsDir() || !isTemplateName(e.Name()) {
			continue
		}
		res.Files = append(res.Files, validateTemplateFile(filepath.Join(dir, e.Name())))
	}
	for _, f := range res.Files {
		if f.Valid {
			res.Valid++
		} else {
			res.Invalid++
		}
	}

	if len(res.Files) == 0 {
		_ = out.Error(CodeTemplate, sequence.ErrNoTemplates.Error(), map[string]string{"dir": dir})
		return WrapExitError(ExitFailure, "no templates", sequence.ErrNoTemplates)
	}

	if err := out.Success(res, func(w io.Writer) { writeTemplatesText(w, res) }); err != nil {
		return err
	}
	if res.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid template(s)", res.Invalid))
	}
	return nil
}

func validateTemplateFile(path string) TemplateReport {
	r := TemplateReport{File: filepath.Base(path)}
	t, err := sequence.LoadFile(path)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Valid = true
	r.NTargets = t.NTargets
	r.NFillers = t.NFillers
	r.Slots = len(t.Ordering)
	r.LongLags = sequence.OrderIndexesByLag(t.Clone().Ordering)
	return r
}

func writeTemplatesText(w io.Writer, res TemplatesResult) {
	fmt.Fprintf(w, "Templates in %s\n", res.Dir)
	for _, f := range res.Files {
		if f.Valid {
			fmt.Fprintf(w, "  ok    %s  targets=%d fillers=%d slots=%d long_lags=%d\n",
				f.File, f.NTargets, f.NFillers, f.Slots, f.LongLags)
		} else {
			fmt.Fprintf(w, "  FAIL  %s  %s\n", f.File, f.Error)
		}
	}
	fmt.Fprintf(w, "%d valid, %d invalid\n", res.Valid, res.Invalid)
}

func isTemplateName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
