package cli

import (
	"fmt"
	"strings"

	"github.com/AndreyAkinshin/taptally/internal/errors"
	"github.com/AndreyAkinshin/taptally/internal/output"
)

// commandSpec describes a command for help and shell completion.
type commandSpec struct {
	name  string
	desc  string
	flags []string
}

// builtinCommands returns the CLI commands in help order.
func builtinCommands() []commandSpec {
	return []commandSpec{
		{"publish", "Tally TAP reports and decide the build outcome",
			[]string{"--flatten", "--strip-single-parents", "--show-only-failures", "--fail-if-no-results", "--since=", "--tap"}},
		{"show", "Print the results of one TAP report", []string{"--flatten", "--show-only-failures"}},
		{"attachment", "Extract an embedded attachment", []string{"--output="}},
		{"config", "Configuration utilities", nil},
		{"completion", "Generate shell completion", nil},
		{"version", "Show version information", nil},
		{"help", "Show help", nil},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []string {
	return []string{"--quiet", "--verbose", "--config=", "--root=", "--help", "--version"}
}

// cmdCompletion generates shell completion scripts.
func cmdCompletion(args []string) int {
	shell := ""
	alias := ""

	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			printCompletionUsage()
			return 0
		case strings.HasPrefix(arg, "--alias="):
			alias = strings.TrimPrefix(arg, "--alias=")
		case arg == "--alias":
			out.ErrorPrefix("completion: --alias requires a value (--alias=<name>)")
			return errors.ExitConfigError
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("completion: unknown flag: %s", arg)
			return errors.ExitConfigError
		default:
			if shell != "" {
				out.ErrorPrefix("completion: unexpected argument: %s", arg)
				return errors.ExitConfigError
			}
			shell = arg
		}
	}

	if shell == "" {
		out.ErrorPrefix("completion: shell required (bash, zsh, fish)")
		return errors.ExitConfigError
	}

	cmdName := "taptally"
	if alias != "" {
		cmdName = alias
	}

	switch shell {
	case "bash":
		out.Print("%s", generateBashCompletion(cmdName))
	case "zsh":
		out.Print("%s", generateZshCompletion(cmdName))
	case "fish":
		out.Print("%s", generateFishCompletion(cmdName))
	default:
		out.ErrorPrefix("completion: unsupported shell %q (use bash, zsh, or fish)", shell)
		return errors.ExitConfigError
	}
	return 0
}

func printCompletionUsage() {
	w := output.New()

	w.HelpTitle("taptally completion - generate shell completion scripts")

	w.HelpSection("Usage:")
	w.HelpUsage("taptally completion <shell> [--alias=<name>]")

	w.HelpSection("Options:")
	w.HelpFlag("--alias=<name>", "Generate completion for a command alias", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	w.HelpSection("Installation:")
	w.Println("  Bash:  eval \"$(taptally completion bash)\"")
	w.Println("  Zsh:   eval \"$(taptally completion zsh)\"")
	w.Println("  Fish:  taptally completion fish | source")
	w.Println("")
}

func commandNames() []string {
	var names []string
	for _, c := range builtinCommands() {
		names = append(names, c.name)
	}
	return names
}

// funcName turns a command name into a shell function identifier.
func funcName(cmdName string) string {
	return "_" + strings.NewReplacer("-", "_", ".", "_").Replace(cmdName)
}

func generateBashCompletion(cmdName string) string {
	var flagCases strings.Builder
	for _, c := range builtinCommands() {
		if len(c.flags) == 0 {
			continue
		}
		fmt.Fprintf(&flagCases, "        %s)\n            COMPREPLY=($(compgen -W \"%s\" -- \"${cur}\"))\n            [[ \"${cur}\" == -* ]] && return\n            ;;\n",
			c.name, strings.Join(c.flags, " "))
	}

	fn := funcName(cmdName) + "_completions"
	return fmt.Sprintf(`# %[1]s bash completion
# Add to ~/.bashrc: eval "$(%[1]s completion bash)"

%[2]s() {
    local cur prev words cword
    _init_completion || return

    local commands="%[3]s"
    local flags="%[4]s"

    if [[ ${cword} -eq 1 ]]; then
        COMPREPLY=($(compgen -W "${commands} ${flags}" -- "${cur}"))
        return
    fi

    case "${words[1]}" in
        config)
            COMPREPLY=($(compgen -W "validate" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
%[5]s    esac

    _filedir tap
}

complete -F %[2]s %[1]s
`, cmdName, fn, strings.Join(commandNames(), " "), strings.Join(globalFlags(), " "), flagCases.String())
}

func generateZshCompletion(cmdName string) string {
	var commands strings.Builder
	for _, c := range builtinCommands() {
		fmt.Fprintf(&commands, "        '%s:%s'\n", c.name, c.desc)
	}

	var flagCases strings.Builder
	for _, c := range builtinCommands() {
		if len(c.flags) == 0 {
			continue
		}
		fmt.Fprintf(&flagCases, "        %s)\n            compadd -- %s\n            _files -g '*.tap'\n            ;;\n",
			c.name, strings.Join(c.flags, " "))
	}

	fn := funcName(cmdName)
	return fmt.Sprintf(`#compdef %[1]s
# %[1]s zsh completion
# Add to ~/.zshrc: eval "$(%[1]s completion zsh)"

%[2]s() {
    local -a commands
    commands=(
%[3]s    )

    if (( CURRENT == 2 )); then
        _describe -t commands 'command' commands
        compadd -- %[4]s
        return
    fi

    case "${words[2]}" in
        config)
            compadd validate
            ;;
        completion)
            compadd bash zsh fish
            ;;
%[5]s    esac
}

compdef %[2]s %[1]s
`, cmdName, fn, commands.String(), strings.Join(globalFlags(), " "), flagCases.String())
}

func generateFishCompletion(cmdName string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %[1]s fish completion\n# Add to config: %[1]s completion fish | source\n\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -f\n\n", cmdName)

	for _, c := range builtinCommands() {
		fmt.Fprintf(&sb, "complete -c %s -n '__fish_use_subcommand' -a '%s' -d '%s'\n", cmdName, c.name, c.desc)
	}

	sb.WriteString("\n# Command flags\n")
	for _, c := range builtinCommands() {
		for _, f := range c.flags {
			fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from %s' -l %s\n", cmdName, c.name, strings.TrimSuffix(strings.TrimPrefix(f, "--"), "="))
		}
	}
	for _, c := range builtinCommands() {
		if c.name == "show" || c.name == "attachment" {
			fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from %s' -F\n", cmdName, c.name)
		}
	}

	sb.WriteString("\n# Global flags\n")
	for _, f := range globalFlags() {
		fmt.Fprintf(&sb, "complete -c %s -l %s\n", cmdName, strings.TrimSuffix(strings.TrimPrefix(f, "--"), "="))
	}

	sb.WriteString("\n# Subcommands\n")
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from config' -a 'validate' -d 'Validate configuration'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'\n", cmdName)

	return sb.String()
}
