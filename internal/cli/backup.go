package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

type ExportCmd struct {
	Output string `help:"Output file path (default: backup_YYYYMMDD_HHMMSS.json)." short:"o" type:"path"`
}

func (c *ExportCmd) Run(ctx *Context) error {
	output := c.Output
	if output == "" {
		output = fmt.Sprintf("backup_%s.json", ctx.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	backup, err := ctx.Backups.Export(output)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Exported %d users, %d habits, %d skips to %s (%.1f KB)\n",
		len(backup.Users), len(backup.Habits), len(backup.Skips), output, float64(info.Size())/1024.0)
	return nil
}

type ImportCmd struct {
	Input string `arg:"" help:"Backup file to restore." type:"existingfile"`
}

func (c *ImportCmd) Run(ctx *Context) error {
	backup, err := ctx.Backups.Import(c.Input)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(ctx.Out, "✓ Imported %d users, %d habits, %d skips from %s\n",
		len(backup.Users), len(backup.Habits), len(backup.Skips), filepath.Base(c.Input))
	return nil
}
