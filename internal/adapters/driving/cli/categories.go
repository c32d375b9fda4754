package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

var categoriesCmd = &cobra.Command{
	Use:         "categories",
	Aliases:     []string{"category"},
	Short:       "Browse and edit product categories",
	Annotations: clientAnnotation,
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE:  runCategoriesList,
}

var categoriesCreateCmd = &cobra.Command{
	Use:   "create <name>...",
	Short: "Create one or more categories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategoriesCreate,
}

var categoriesUpdateCmd = &cobra.Command{
	Use:   "update <id> <name>",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoriesUpdate,
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesDelete,
}

var categoriesSupplier int64

func init() {
	categoriesListCmd.Flags().Int64Var(&categoriesSupplier, "supplier", 0, "Only categories used by this supplier's products")

	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesCmd.AddCommand(categoriesCreateCmd)
	categoriesCmd.AddCommand(categoriesUpdateCmd)
	categoriesCmd.AddCommand(categoriesDeleteCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func requireCategories() error {
	if categoryCommands == nil {
		return errors.New("category service not configured")
	}
	return nil
}

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	var (
		res domain.Cached[[]domain.Category]
		err error
	)
	if categoriesSupplier > 0 {
		res, err = catalogService.CategoriesBySupplier(cmd.Context(), categoriesSupplier)
	} else {
		res, err = catalogService.Categories(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	if len(res.Data) == 0 {
		cmd.Println("No categories.")
		return nil
	}
	rows := make([][]string, 0, len(res.Data))
	for _, c := range res.Data {
		rows = append(rows, []string{formatID(c.ID), c.Name})
	}
	printTable(cmd, []string{"ID", "NAME"}, rows)
	return nil
}

func runCategoriesCreate(cmd *cobra.Command, args []string) error {
	if err := requireCategories(); err != nil {
		return err
	}
	if len(args) == 1 {
		res, err := categoryCommands.Create(cmd.Context(), domain.CategoryPayload{Name: args[0]})
		if err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		printQueued(cmd, res)
		cmd.Printf("Created category %s (%s)\n", formatID(res.Data.ID), res.Data.Name)
		return nil
	}

	in := make([]domain.CategoryPayload, 0, len(args))
	for _, name := range args {
		in = append(in, domain.CategoryPayload{Name: name})
	}
	res, err := categoryCommands.BulkCreate(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("failed to create categories: %w", err)
	}
	printQueued(cmd, res)
	names := make([]string, 0, len(res.Data))
	for _, c := range res.Data {
		names = append(names, c.Name)
	}
	cmd.Printf("Created %d categories: %s\n", len(res.Data), strings.Join(names, ", "))
	return nil
}

func runCategoriesUpdate(cmd *cobra.Command, args []string) error {
	if err := requireCategories(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	res, err := categoryCommands.Update(cmd.Context(), id, domain.CategoryPayload{Name: args[1]})
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Renamed category %s to %s\n", formatID(id), args[1])
	return nil
}

func runCategoriesDelete(cmd *cobra.Command, args []string) error {
	if err := requireCategories(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	res, err := categoryCommands.Delete(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Deleted category %s\n", formatID(id))
	return nil
}
