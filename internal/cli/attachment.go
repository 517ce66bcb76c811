package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AndreyAkinshin/taptally/internal/errors"
	"github.com/AndreyAkinshin/taptally/internal/output"
	"github.com/AndreyAkinshin/taptally/internal/report"
)

// cmdAttachment extracts a base64 attachment from a TAP report. The key
// is either the diagnostic key the attachment is nested under or its
// file-name. Without --output the attachment is saved under its own file
// name in the current directory; --output=- writes it to stdout.
func cmdAttachment(args []string, globalOpts *GlobalOptions) int {
	if wantsHelp(args) {
		printAttachmentUsage()
		return 0
	}

	var positional []string
	var dest string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--output="):
			dest = strings.TrimPrefix(arg, "--output=")
			if dest == "" {
				out.ErrorPrefix("attachment: --output requires a value")
				return errors.ExitConfigError
			}
		case strings.HasPrefix(arg, "-") && arg != "-":
			out.ErrorPrefix("attachment: unknown flag %q", arg)
			return errors.ExitConfigError
		default:
			positional = append(positional, arg)
		}
	}
	if len(positional) != 2 {
		out.ErrorPrefix("attachment: expected <file> and <key>")
		out.Errorln("usage: taptally attachment <file> <key> [--output=<path>]")
		return errors.ExitConfigError
	}
	file, key := positional[0], positional[1]

	cfg, code := loadConfig(globalOpts)
	if cfg == nil {
		return code
	}

	r, err := loadReport(cfg, file)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	att, ok := r.FindAttachment(file, key)
	if !ok {
		err := errors.NotFound("attachment", key)
		err.File = file
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	if dest == "-" {
		if _, err := out.Out().Write(att.Content); err != nil {
			out.ErrorPrefix("failed to write attachment: %v", err)
			return errors.ExitRuntimeError
		}
		return 0
	}
	if dest == "" {
		dest = filepath.Base(att.FileName)
	}
	if err := os.WriteFile(dest, att.Content, 0644); err != nil {
		out.ErrorPrefix("failed to write attachment: %v", err)
		return errors.ExitRuntimeError
	}

	out.Success("Saved %s", dest)
	out.SummaryItem("Size", describeSize(att))
	if att.FileType != "" {
		out.SummaryItem("Type", att.FileType)
	}
	return 0
}

// describeSize reports the decoded size and flags a declared file-size
// that disagrees with it.
func describeSize(att *report.Attachment) string {
	s := fmt.Sprintf("%d bytes", len(att.Content))
	if att.Size >= 0 && att.Size != len(att.Content) {
		s += fmt.Sprintf(" (declared %d)", att.Size)
	}
	return s
}

func printAttachmentUsage() {
	w := output.New()

	w.HelpTitle("taptally attachment - extract an embedded attachment")

	w.HelpSection("Usage:")
	w.HelpUsage("taptally attachment <file> <key> [--output=<path>]")

	w.HelpSection("Description:")
	w.Println("  Searches the YAML diagnostics of every result for a mapping nested")
	w.Println("  under <key> or carrying file-name: <key>, and decodes its base64")
	w.Println("  File-Content.")

	w.HelpSection("Flags:")
	w.HelpFlag("--output=<path>", "Destination file, - for stdout", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	w.HelpSection("Examples:")
	w.HelpExample("taptally attachment out/ui.tap screenshot", "Save under the attachment's file name")
	w.HelpExample("taptally attachment out/ui.tap log.txt --output=-", "Print to stdout")
	w.Println("")
}
