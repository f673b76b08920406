package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"img2pdf/converter"
	"img2pdf/files_manager"
)

type menuState int

const (
	stateMenu menuState = iota
	stateSingle
	stateIndividual
	stateCombine
	stateFolder
	stateExit
)

var menuChoices = map[string]menuState{
	"1": stateSingle,
	"2": stateIndividual,
	"3": stateCombine,
	"4": stateFolder,
	"5": stateExit,
}

// Menu is the interactive mode: a loop of menu, action, menu until the user
// picks exit or input runs out.
type Menu struct {
	conv *converter.Converter
	in   *bufio.Reader
	out  io.Writer
}

func NewMenu(conv *converter.Converter, in io.Reader, out io.Writer) *Menu {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Menu{conv: conv, in: br, out: out}
}

func (m *Menu) Run() {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(m.out, "\n%s\nImage to PDF Converter - Interactive Mode\n%s\n", rule, rule)

	state := stateMenu
	for state != stateExit {
		state = m.step(state)
	}
}

func (m *Menu) step(state menuState) menuState {
	var err error
	switch state {
	case stateMenu:
		return m.choose()
	case stateSingle:
		err = m.convertSingle()
	case stateIndividual:
		err = m.convertIndividual()
	case stateCombine:
		err = m.combine()
	case stateFolder:
		err = m.convertFolder()
	}
	if err != nil {
		fmt.Fprintln(m.out)
		return stateExit
	}
	return stateMenu
}

func (m *Menu) choose() menuState {
	fmt.Fprint(m.out, "\nOptions:\n"+
		"1. Convert single image\n"+
		"2. Convert multiple images to individual PDFs\n"+
		"3. Combine multiple images into one PDF\n"+
		"4. Convert all images in a folder\n"+
		"5. Exit\n")
	choice, err := m.ask("\nEnter your choice (1-5): ")
	if err != nil {
		fmt.Fprintln(m.out)
		return stateExit
	}
	next, ok := menuChoices[choice]
	if !ok {
		fmt.Fprintln(m.out, "Invalid choice!")
		return stateMenu
	}
	if next == stateExit {
		fmt.Fprintln(m.out, "Goodbye!")
	}
	return next
}

func (m *Menu) convertSingle() error {
	path, err := m.ask("Enter image path: ")
	if err != nil {
		return err
	}
	if path == "" || !fileExists(path) {
		fmt.Fprintln(m.out, "File not found!")
		return nil
	}
	output, err := m.ask("Output PDF name (press Enter for auto-name): ")
	if err != nil {
		return err
	}
	conv, err := m.askResize()
	if err != nil {
		return err
	}
	reportSingle(m.out, conv.ConvertImage(path, output))
	return nil
}

func (m *Menu) convertIndividual() error {
	files, err := m.askPattern()
	if err != nil || files == nil {
		return err
	}
	conv, err := m.askResize()
	if err != nil {
		return err
	}
	for _, file := range files {
		reportSingle(m.out, conv.ConvertImage(file, ""))
	}
	return nil
}

func (m *Menu) combine() error {
	files, err := m.askPattern()
	if err != nil || files == nil {
		return err
	}
	output, err := m.ask("Output PDF name: ")
	if err != nil {
		return err
	}
	if output == "" {
		output = combinedName
	}
	conv, err := m.askResize()
	if err != nil {
		return err
	}
	reportCombined(m.out, conv.CombineImages(files, output))
	return nil
}

func (m *Menu) convertFolder() error {
	dir, err := m.ask("Enter folder path: ")
	if err != nil {
		return err
	}
	if dir == "" || files_manager.CheckDir(dir) != nil {
		fmt.Fprintln(m.out, "Folder not found!")
		return nil
	}
	mode, err := m.ask("Combine into single PDF or separate? (single/separate): ")
	if err != nil {
		return err
	}
	conv, err := m.askResize()
	if err != nil {
		return err
	}

	folder, scanErr := files_manager.ScanImageFolder(dir)
	if scanErr != nil || len(folder.ImagePaths) == 0 {
		fmt.Fprintln(m.out, "No images found in folder!")
		return nil
	}

	if strings.EqualFold(mode, "single") {
		output, err := m.ask("Output PDF name (press Enter for 'combined.pdf'): ")
		if err != nil {
			return err
		}
		if output == "" {
			output = filepath.Join(dir, combinedName)
		}
		reportCombined(m.out, conv.CombineImages(folder.ImagePaths, output))
		return nil
	}
	for _, file := range folder.ImagePaths {
		reportSingle(m.out, conv.ConvertImage(file, ""))
	}
	return nil
}

// askPattern returns nil files, and reports it, when nothing matches.
func (m *Menu) askPattern() ([]string, error) {
	pattern, err := m.ask("Enter image pattern (e.g., *.jpg): ")
	if err != nil {
		return nil, err
	}
	files, globErr := files_manager.ExpandPatterns(pattern)
	if pattern == "" || globErr != nil || len(files) == 0 {
		fmt.Fprintln(m.out, "No files found!")
		return nil, nil
	}
	return files, nil
}

func (m *Menu) askResize() (*converter.Converter, error) {
	answer, err := m.ask("Resize to A4? (y/n): ")
	if err != nil {
		return nil, err
	}
	return m.conv.WithResizeA4(strings.EqualFold(answer, "y")), nil
}

func (m *Menu) ask(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	return readLine(m.in)
}

// readLine returns the next trimmed line. A final line without a newline is
// still returned; io.EOF comes only once input is exhausted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
