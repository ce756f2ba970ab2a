package logger

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// ANSI color codes
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	blue    = "\033[34m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	white   = "\033[37m"
)

var useColors = runtime.GOOS != "windows" || os.Getenv("TERM") != ""

func colorize(color, text string) string {
	if !useColors {
		return text
	}
	return color + text + reset
}

func timestamp() string {
	t := time.Now().Format("15:04:05")
	return colorize(dim, t)
}

// Banner prints the startup banner
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	pad := 20 - len(version)
	if pad < 0 {
		pad = 0
	}

	fmt.Println()
	fmt.Println(colorize(cyan+bold, "  ╔═══════════════════════════════════════╗"))
	fmt.Println(colorize(cyan+bold, "  ║")+colorize(yellow+bold, "           GATENAV ")+colorize(dim, version)+colorize(cyan+bold, strings.Repeat(" ", pad)+"║"))
	fmt.Println(colorize(cyan+bold, "  ║")+colorize(dim, "      Sector Route Planner           ")+colorize(cyan+bold, "║"))
	fmt.Println(colorize(cyan+bold, "  ╚═══════════════════════════════════════╝"))
	fmt.Println()
}

func line(color, icon, tag, msg string) {
	tagStr := colorize(color, fmt.Sprintf("[%s]", tag))
	fmt.Printf("%s %s %s %s\n", timestamp(), colorize(color, icon), tagStr, msg)
}

// Info prints an info message
func Info(tag, msg string) {
	icon := colorize(blue, "●")
	tagStr := colorize(cyan, fmt.Sprintf("[%s]", tag))
	fmt.Printf("%s %s %s %s\n", timestamp(), icon, tagStr, msg)
}

// Success prints a success message
func Success(tag, msg string) {
	line(green, "✓", tag, msg)
}

// Warn prints a warning message
func Warn(tag, msg string) {
	line(yellow, "⚠", tag, msg)
}

// Error prints an error message
func Error(tag, msg string) {
	line(red, "✗", tag, msg)
}

// Debug prints a dimmed message, only when GATENAV_DEBUG is set.
func Debug(tag, msg string) {
	if os.Getenv("GATENAV_DEBUG") == "" {
		return
	}
	line(magenta, "·", tag, colorize(dim, msg))
}

// Server prints the server listening message
func Server(addr string) {
	fmt.Println()
	icon := colorize(green+bold, "►")
	fmt.Printf("%s %s Server running at %s\n", timestamp(), icon, colorize(cyan+bold, "http://"+addr))
	fmt.Printf("%s   %s\n", strings.Repeat(" ", 8), colorize(dim, "Press Ctrl+C to stop"))
	fmt.Println()
}

// Section prints a section header
func Section(title string) {
	fmt.Printf("\n%s %s\n", colorize(dim, "───"), colorize(white+bold, title))
}

// Stats prints statistics in a nice format
func Stats(label string, value interface{}) {
	fmt.Printf("    %s %s %v\n", colorize(dim, "•"), colorize(dim, label+":"), colorize(white, fmt.Sprint(value)))
}
