//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func bin() string {
	return filepath.Join(binDir, binName)
}

// Extract parses every corpus in pools/raw/ into bank/extracted/.
func Extract() error {
	mg.Deps(Build, Init)
	return sh.RunV(bin(), "extract", "--batch", "--pools-dir", "pools", "--bank-dir", "bank")
}

// Index loads the extracted question sets into the SQLite bank.
func Index() error {
	mg.Deps(Build)
	return sh.RunV(bin(), "bank", "store", "--bank-dir", "bank")
}

// Export writes the study-app JSON document to output/questions.json.
func Export() error {
	mg.Deps(Build)
	return sh.RunV(bin(), "bank", "export", "--bank-dir", "bank", "--format", "json", "--output", filepath.Join("output", "questions.json"))
}

// Pipeline runs extraction, indexing, and export in order.
func Pipeline() {
	mg.SerialDeps(Extract, Index, Export)
}
