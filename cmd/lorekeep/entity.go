// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorekeep-dev/lorekeep/internal/store"
)

func newEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage world entities",
		Long:  "Create, inspect, and delete entities (characters, places, factions, items).",
	}

	cmd.AddCommand(
		newEntityCreateCmd(),
		newEntityShowCmd(),
		newEntityListCmd(),
		newEntityDeleteCmd(),
	)

	return cmd
}

func newEntityCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entity",
		RunE:  runEntityCreate,
	}

	cmd.Flags().String("name", "", "entity name")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().String("type", "", "entity category (character, place, faction, ...)")
	cmd.Flags().String("description", "", "free-form description")
	cmd.Flags().String("tags", "", "comma-separated tags")

	return cmd
}

func runEntityCreate(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	name, _ := cmd.Flags().GetString("name")
	entityType, _ := cmd.Flags().GetString("type")
	description, _ := cmd.Flags().GetString("description")
	tags, _ := cmd.Flags().GetString("tags")

	e := store.Entity{
		Name:        name,
		Type:        entityType,
		Description: description,
		Tags:        splitTags(tags),
	}
	if err := app.store.CreateEntity(cmd.Context(), &e); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), e.ID)
	return nil
}

func newEntityShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			e, err := app.store.GetEntity(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "id:          %s\n", e.ID)
			_, _ = fmt.Fprintf(out, "name:        %s\n", e.Name)
			_, _ = fmt.Fprintf(out, "type:        %s\n", e.Type)
			_, _ = fmt.Fprintf(out, "description: %s\n", e.Description)
			_, _ = fmt.Fprintf(out, "tags:        %s\n", strings.Join(e.Tags, ", "))
			return nil
		},
	}
}

func newEntityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all entities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			entities, err := app.store.ListEntities(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entities) == 0 {
				_, _ = fmt.Fprintln(out, "No entities.")
				return nil
			}
			for _, e := range entities {
				_, _ = fmt.Fprintf(out, "%s  %-12s %s\n", e.ID, e.Type, e.Name)
			}
			return nil
		},
	}
}

func newEntityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity and its index entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if err := app.store.DeleteEntity(cmd.Context(), args[0]); err != nil {
				return err
			}
			// Record deletion triggers index cleanup.
			if err := app.manager.DeleteObject(cmd.Context(), store.ObjectTypeEntity, args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted entity %s\n", args[0])
			return nil
		},
	}
}

func splitTags(csv string) []string {
	if csv == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(csv, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
