package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docforge/internal/config"
)

// initCmd scaffolds a new project: config, source tree, one sample page.
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a new documentation project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

const samplePage = `Getting started
===============

Welcome to your new documentation project. Edit the sources under the
` + "``source``" + ` directory and run ` + "``docforge build``" + `.

.. note::

   Cross-references use the ` + ":ref:`writing-pages`" + ` role and resolve
   against section anchors anywhere in the project.

.. _writing-pages:

Writing pages
-------------

Code blocks declare their language and are syntax-checked during the build::

   this indented block is literal text, not code

.. code-block:: go

   package main

   import "fmt"

   func main() {
   	fmt.Println("hello from docforge")
   }
`

func runInit(cmd *cobra.Command, args []string) error {
	root := resolveRoot(args)

	cfgPath := filepath.Join(root, config.ConfigFileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}

	srcDir := filepath.Join(root, cfg.Source.Dir)
	if err := os.MkdirAll(filepath.Join(root, cfg.Source.StaticDir), 0755); err != nil {
		return fmt.Errorf("create source tree: %w", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "index.rst"), []byte(samplePage), 0644); err != nil {
		return fmt.Errorf("write sample page: %w", err)
	}

	fmt.Println(successStyle.Render("initialized") + " project in " + root)
	fmt.Println("next: docforge build " + root)
	return nil
}
