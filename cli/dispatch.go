package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"img2pdf/contracts"
	"img2pdf/converter"
	"img2pdf/files_manager"
)

const combinedName = "combined.pdf"

func (a *app) runDirectory(conv *converter.Converter, dir string, combine bool, multi string) {
	folder, err := files_manager.ScanImageFolder(dir)
	if err != nil {
		if contracts.KindOf(err) == contracts.KindNotDirectory {
			fmt.Fprintf(a.out, "Error: %s is not a directory\n", dir)
		} else {
			fmt.Fprintf(a.out, "✗ Error reading %s: %v\n", dir, err)
		}
		return
	}
	if len(folder.ImagePaths) == 0 {
		fmt.Fprintf(a.out, "No supported images found in %s\n", dir)
		return
	}
	fmt.Fprintf(a.out, "Found %d images in directory\n", len(folder.ImagePaths))

	if combine {
		output := multi
		if output == "" {
			output = filepath.Join(dir, combinedName)
		}
		reportCombined(a.out, conv.CombineImages(folder.ImagePaths, output))
		return
	}
	a.convertEach(conv, folder.ImagePaths)
}

func (a *app) runCombine(conv *converter.Converter, patterns []string, output string) {
	files, err := files_manager.ExpandPatterns(patterns...)
	if err != nil {
		fmt.Fprintf(a.out, "✗ Error: %v\n", err)
		return
	}
	if len(files) == 0 {
		fmt.Fprintf(a.out, "No files found matching: %s\n", strings.Join(patterns, " "))
		return
	}
	if output == "" {
		output = combinedName
	}
	reportCombined(a.out, conv.CombineImages(files, output))
}

// runInputs converts positional inputs. Existing paths are taken as they
// are, missing ones are retried as glob patterns.
func (a *app) runInputs(conv *converter.Converter, args []string, output string) {
	var files []string
	for _, arg := range args {
		if fileExists(arg) {
			files = append(files, arg)
			continue
		}
		if !files_manager.HasGlobMeta(arg) {
			fmt.Fprintf(a.out, "Error: File not found: %s\n", arg)
			continue
		}
		matches, err := files_manager.ExpandPatterns(arg)
		if err != nil || len(matches) == 0 {
			fmt.Fprintf(a.out, "No files found matching: %s\n", arg)
			continue
		}
		files = append(files, matches...)
	}

	switch len(files) {
	case 0:
		return
	case 1:
		reportSingle(a.out, conv.ConvertImage(files[0], output))
	default:
		if output != "" {
			fmt.Fprintf(a.out, "Ignoring --output %s: %d files to convert\n", output, len(files))
		}
		a.convertEach(conv, files)
	}
}

func (a *app) convertEach(conv *converter.Converter, files []string) {
	var summary batchSummary
	for _, file := range files {
		res := conv.ConvertImage(file, "")
		summary.add(res)
		reportSingle(a.out, res)
	}
	if len(files) > 1 {
		reportSummary(a.out, summary)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
