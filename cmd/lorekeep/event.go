// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorekeep-dev/lorekeep/internal/store"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage world events",
		Long:  "Create, inspect, and delete events of the world's history.",
	}

	cmd.AddCommand(
		newEventCreateCmd(),
		newEventShowCmd(),
		newEventListCmd(),
		newEventDeleteCmd(),
	)

	return cmd
}

func newEventCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE:  runEventCreate,
	}

	cmd.Flags().String("name", "", "event name")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().String("type", "", "event category (battle, founding, disaster, ...)")
	cmd.Flags().String("date", "", "in-world date")
	cmd.Flags().String("description", "", "free-form description")
	cmd.Flags().String("tags", "", "comma-separated tags")

	return cmd
}

func runEventCreate(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	name, _ := cmd.Flags().GetString("name")
	eventType, _ := cmd.Flags().GetString("type")
	date, _ := cmd.Flags().GetString("date")
	description, _ := cmd.Flags().GetString("description")
	tags, _ := cmd.Flags().GetString("tags")

	e := store.Event{
		Name:        name,
		Type:        eventType,
		Date:        date,
		Description: description,
		Tags:        splitTags(tags),
	}
	if err := app.store.CreateEvent(cmd.Context(), &e); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), e.ID)
	return nil
}

func newEventShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			e, err := app.store.GetEvent(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "id:          %s\n", e.ID)
			_, _ = fmt.Fprintf(out, "name:        %s\n", e.Name)
			_, _ = fmt.Fprintf(out, "type:        %s\n", e.Type)
			_, _ = fmt.Fprintf(out, "date:        %s\n", e.Date)
			_, _ = fmt.Fprintf(out, "description: %s\n", e.Description)
			_, _ = fmt.Fprintf(out, "tags:        %s\n", strings.Join(e.Tags, ", "))
			return nil
		},
	}
}

func newEventListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			events, err := app.store.ListEvents(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				_, _ = fmt.Fprintln(out, "No events.")
				return nil
			}
			for _, e := range events {
				_, _ = fmt.Fprintf(out, "%s  %-12s %-16s %s\n", e.ID, e.Type, e.Date, e.Name)
			}
			return nil
		},
	}
}

func newEventDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event and its index entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if err := app.store.DeleteEvent(cmd.Context(), args[0]); err != nil {
				return err
			}
			// Record deletion triggers index cleanup.
			if err := app.manager.DeleteObject(cmd.Context(), store.ObjectTypeEvent, args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted event %s\n", args[0])
			return nil
		},
	}
}
