//go:build ignore

package main

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// The W3C XML conformance suite bundles the xmltest, Sun, IBM, OASIS and
// Edinburgh (namespace) collections, each described by an XML catalog.
const suiteURL = "https://www.w3.org/XML/Test/xmlts20130923.zip"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <output-directory>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDownloads the W3C XML conformance test suite.\n")
		fmt.Fprintf(os.Stderr, "The archive unpacks to <output-directory>/xmlconf/.\n")
		fmt.Fprintf(os.Stderr, "\nExample: %s ./w3c-tests\n", os.Args[0])
		os.Exit(1)
	}

	outputDir := os.Args[1]
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Downloading the W3C XML conformance suite to: %s\n", outputDir)
	if err := download(outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✓ Suite downloaded.\n")
	fmt.Printf("Set XMLCONF_DIR=%s to run the conformance tests.\n", filepath.Join(outputDir, "xmlconf"))
}

func download(outputDir string) error {
	tempFile := filepath.Join(os.TempDir(), "xmlconf-download.zip")
	defer os.Remove(tempFile)

	fmt.Printf("  Fetching %s...\n", suiteURL)
	resp, err := http.Get(suiteURL)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	out, err := os.Create(tempFile)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to save download: %w", err)
	}
	out.Close()

	fmt.Printf("  Extracting...\n")
	return extractZip(tempFile, outputDir)
}

func extractZip(zipFile, outputDir string) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.FromSlash(f.Name)
		if strings.Contains(name, "..") {
			continue
		}

		destPath := filepath.Join(outputDir, name)
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
