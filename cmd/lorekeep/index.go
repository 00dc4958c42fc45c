// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorekeep-dev/lorekeep/internal/store"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the semantic index",
		Long:  "Build, maintain, and query the embedding index over entities and events.",
	}

	cmd.AddCommand(
		newIndexRebuildCmd(),
		newIndexObjectCmd(),
		newIndexDeleteObjectCmd(),
		newIndexQueryCmd(),
	)

	return cmd
}

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "embedding provider (lmstudio or sentence-transformers)")
	cmd.Flags().String("model", "", "embedding model override")
}

func newIndexRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Re-index all objects of the given type",
		Long: "Composes indexable text for every object, embeds what changed, and " +
			"reports a summary. Unchanged objects (same text, same provider and model) " +
			"are skipped without an embedding call.",
		RunE: runIndexRebuild,
	}

	cmd.Flags().String("type", "all", "object type to rebuild: all, entity, or event")
	addProviderFlags(cmd)
	cmd.Flags().String("excluded-attributes", "", "comma-separated attribute names to omit from indexed text")
	cmd.Flags().Bool("json", false, "print the summary as JSON")

	return cmd
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	typeFilter, err := parseTypeFlag(cmd, true)
	if err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	emb, err := app.embedder(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	summary, err := app.manager.Rebuild(cmd.Context(), emb, typeFilter, app.indexOptions(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(out, "indexed %d, skipped %d, failed %d\n",
			summary.Indexed, summary.Skipped, summary.Failed)
		for _, f := range summary.Failures {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "failed %s %s: %s\n", f.ObjectType, f.ObjectID, f.Reason)
		}
		if summary.Canceled {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "rebuild canceled: summary covers a partial run")
		}
	}

	if summary.Failed > 0 {
		return lkerr.Errorf(lkerr.CodeCLIIndexIncomplete, "rebuild finished with %d failed objects", summary.Failed)
	}
	return nil
}

func newIndexObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index-object",
		Short: "Index a single object",
		RunE:  runIndexObject,
	}

	cmd.Flags().String("type", "", "object type: entity or event")
	cmd.Flags().String("id", "", "object id")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("id")
	addProviderFlags(cmd)
	cmd.Flags().String("excluded-attributes", "", "comma-separated attribute names to omit from indexed text")

	return cmd
}

func runIndexObject(cmd *cobra.Command, _ []string) error {
	typeFilter, err := parseTypeFlag(cmd, false)
	if err != nil {
		return err
	}
	id, _ := cmd.Flags().GetString("id")

	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	emb, err := app.embedder(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	skipped, err := app.manager.IndexObject(cmd.Context(), emb, *typeFilter, id, app.indexOptions(cmd))
	if err != nil {
		return err
	}

	if skipped {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s already up to date\n", *typeFilter, id)
	} else {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "indexed %s %s\n", *typeFilter, id)
	}
	return nil
}

func newIndexDeleteObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-object",
		Short: "Remove a single object from the index",
		RunE:  runIndexDeleteObject,
	}

	cmd.Flags().String("type", "", "object type: entity or event")
	cmd.Flags().String("id", "", "object id")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runIndexDeleteObject(cmd *cobra.Command, _ []string) error {
	typeFilter, err := parseTypeFlag(cmd, false)
	if err != nil {
		return err
	}
	id, _ := cmd.Flags().GetString("id")

	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if err := app.manager.DeleteObject(cmd.Context(), *typeFilter, id); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s from index\n", *typeFilter, id)
	return nil
}

func newIndexQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Find objects by semantic similarity",
		RunE:  runIndexQuery,
	}

	cmd.Flags().String("text", "", "query text")
	_ = cmd.MarkFlagRequired("text")
	cmd.Flags().String("type", "all", "restrict results to one object type")
	cmd.Flags().Int("top-k", 0, "maximum number of results (default from config)")
	addProviderFlags(cmd)
	cmd.Flags().Bool("json", false, "print results as JSON")

	return cmd
}

func runIndexQuery(cmd *cobra.Command, _ []string) error {
	typeFilter, err := parseTypeFlag(cmd, true)
	if err != nil {
		return err
	}
	text, _ := cmd.Flags().GetString("text")

	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	topK, _ := cmd.Flags().GetInt("top-k")
	if topK <= 0 {
		topK = app.cfg.Index.TopK
	}

	emb, err := app.embedder(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	matches, err := app.query.Query(cmd.Context(), emb, text, typeFilter, topK)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		_, _ = fmt.Fprintln(out, "No matches.")
		return nil
	}
	for i, m := range matches {
		_, _ = fmt.Fprintf(out, "%2d. %.4f  %s  %s\n", i+1, m.Score, m.ObjectType, m.ObjectID)
	}
	return nil
}

// parseTypeFlag reads --type. With allowAll, "all" (or empty) means no
// filter and nil is returned; otherwise a concrete type is required.
func parseTypeFlag(cmd *cobra.Command, allowAll bool) (*store.ObjectType, error) {
	raw, _ := cmd.Flags().GetString("type")

	if allowAll && (raw == "" || raw == "all") {
		return nil, nil
	}

	t := store.ObjectType(raw)
	if !store.ValidObjectType(t) {
		return nil, lkerr.Errorf(lkerr.CodeCLIInputInvalid, "invalid --type %q: expected entity or event", raw)
	}
	return &t, nil
}
