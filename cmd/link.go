package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/emrgen/worklink/internal/model"
	"github.com/emrgen/worklink/internal/service"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "work item link commands",
}

func init() {
	linkCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	linkCmd.AddCommand(createLinkCmd())
	linkCmd.AddCommand(bulkCreateLinkCmd())
	linkCmd.AddCommand(getLinkCmd())
	linkCmd.AddCommand(listLinksCmd())
	linkCmd.AddCommand(listProjectLinksCmd())
	linkCmd.AddCommand(updateLinkCmd())
	linkCmd.AddCommand(deleteLinkCmd())
	linkCmd.AddCommand(unlinkWorkItemCmd())
	linkCmd.AddCommand(blockedStatusCmd())
	linkCmd.AddCommand(linkTypesCmd())
}

func createLinkCmd() *cobra.Command {
	var workspaceID string
	var sourceID string
	var targetID string
	var linkType string
	var description string
	var noInverse bool
	var skipDuplicate bool

	var required = []string{"workspace-id", "source-id", "target-id", "type"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a link between two work items",
		Example: "worklink link create -w <workspace-id> -s <source-id> -d <target-id> -l BLOCKS",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			lt, err := model.ParseLinkType(linkType)
			if err != nil {
				printError(err)
				return
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			createInverse := !noInverse
			req := &service.CreateLinkRequest{
				WorkspaceID:      workspaceID,
				SourceWorkItemID: sourceID,
				TargetWorkItemID: targetID,
				LinkType:         lt,
				Description:      description,
				CreateInverse:    &createInverse,
			}
			if skipDuplicate {
				req.OnDuplicate = service.DuplicateSkip
			}

			link, err := client.CreateLink(context.Background(), req)
			if err != nil {
				printError(err)
				return
			}

			printLinks([]*model.WorkItemLink{link})
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&workspaceID, "workspace-id", "w", "", "workspace id (required)")
	command.Flags().StringVarP(&sourceID, "source-id", "s", "", "source work item id (required)")
	command.Flags().StringVarP(&targetID, "target-id", "d", "", "target work item id (required)")
	command.Flags().StringVarP(&linkType, "type", "l", "", "link type (required)")
	command.Flags().StringVarP(&description, "description", "m", "", "link description")
	command.Flags().BoolVar(&noInverse, "no-inverse", false, "do not create the inverse link")
	command.Flags().BoolVar(&skipDuplicate, "skip-duplicate", false, "return the existing link instead of failing")

	command.Flags().SortFlags = false

	return command
}

func bulkCreateLinkCmd() *cobra.Command {
	var workspaceID string
	var file string
	var onDuplicate string

	var required = []string{"workspace-id", "file"}

	command := &cobra.Command{
		Use:     "bulk",
		Short:   "create links from a json file",
		Long:    `create links from a json file holding an array of {"sourceWorkItemId", "targetWorkItemId", "linkType", "description"}`,
		Example: "worklink link bulk -w <workspace-id> -f links.json",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				printError(err)
				return
			}

			var entries []service.BulkLinkEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				printError(fmt.Errorf("invalid links file: %w", err))
				return
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			res, err := client.BulkCreateLinks(context.Background(), &service.BulkCreateRequest{
				WorkspaceID: workspaceID,
				Links:       entries,
				OnDuplicate: service.DuplicatePolicy(onDuplicate),
			})
			if err != nil {
				printError(err)
				return
			}

			printLinks(res.Links)
			color.Green("created %d links, skipped %d", len(res.Links), res.Skipped)
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&workspaceID, "workspace-id", "w", "", "workspace id (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "json file with the links (required)")
	command.Flags().StringVar(&onDuplicate, "on-duplicate", "", "reject or skip, defaults to the server setting")

	return command
}

func getLinkCmd() *cobra.Command {
	var linkID string

	var required = []string{"link-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a link",
		Example: "worklink link get -l <link-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			link, err := client.GetLink(context.Background(), linkID)
			if err != nil {
				printError(err)
				return
			}

			printLinks([]*model.WorkItemLink{link})
			if link.Description != "" {
				fmt.Println(link.Description)
			}
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")

	return command
}

func listLinksCmd() *cobra.Command {
	var workItemID string
	var direction string
	var types string

	var required = []string{"work-item-id"}

	command := &cobra.Command{
		Use:     "list",
		Short:   "list the links of a work item",
		Example: "worklink link list -i <work-item-id> --direction outgoing --types BLOCKS,RELATES_TO",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			dir, err := service.ParseDirection(direction)
			if err != nil {
				printError(err)
				return
			}

			var linkTypes []model.LinkType
			for _, name := range strings.Split(types, ",") {
				if strings.TrimSpace(name) == "" {
					continue
				}
				lt, err := model.ParseLinkType(name)
				if err != nil {
					printError(err)
					return
				}
				linkTypes = append(linkTypes, lt)
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			links, err := client.GetLinksForItem(context.Background(), workItemID, dir, linkTypes)
			if err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Direction", "Type", "Work Item", "Title", "Status"})
			for _, view := range append(links.Outgoing, links.Incoming...) {
				key, title, status := "-", "(deleted)", "-"
				if view.WorkItem != nil {
					key, title, status = view.WorkItem.Key, view.WorkItem.Title, string(view.WorkItem.Status)
				}
				table.Append([]string{view.Link.ID, string(view.Direction), view.Link.LinkType.String(), key, title, status})
			}
			table.Render()

			fmt.Printf("blocking: %d, blocked by: %d\n", links.BlockingCount, links.BlockedByCount)
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&workItemID, "work-item-id", "i", "", "work item id (required)")
	command.Flags().StringVar(&direction, "direction", "both", "outgoing, incoming or both")
	command.Flags().StringVar(&types, "types", "", "comma separated link types")

	return command
}

func listProjectLinksCmd() *cobra.Command {
	var projectID string

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:     "project",
		Short:   "list the links inside a project",
		Example: "worklink link project -p <project-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			links, err := client.GetLinksForProject(context.Background(), projectID)
			if err != nil {
				printError(err)
				return
			}

			printLinks(links)
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id (required)")

	return command
}

func updateLinkCmd() *cobra.Command {
	var linkID string
	var description string

	var required = []string{"link-id", "description"}

	command := &cobra.Command{
		Use:     "update",
		Short:   "update the description of a link",
		Example: "worklink link update -l <link-id> -m <description>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			link, err := client.UpdateLink(context.Background(), linkID, &service.UpdateLinkRequest{Description: &description})
			if err != nil {
				printError(err)
				return
			}

			printLinks([]*model.WorkItemLink{link})
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().StringVarP(&description, "description", "m", "", "new description (required)")

	return command
}

func deleteLinkCmd() *cobra.Command {
	var linkID string
	var keepInverse bool

	var required = []string{"link-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a link",
		Example: "worklink link delete -l <link-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			if err := client.DeleteLink(context.Background(), linkID, !keepInverse); err != nil {
				printError(err)
				return
			}

			color.Green("link %s deleted", linkID)
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().BoolVar(&keepInverse, "keep-inverse", false, "keep the inverse link")

	return command
}

func unlinkWorkItemCmd() *cobra.Command {
	var workItemID string

	var required = []string{"work-item-id"}

	command := &cobra.Command{
		Use:     "unlink",
		Short:   "delete every link of a work item",
		Example: "worklink link unlink -i <work-item-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			deleted, err := client.DeleteLinksForWorkItem(context.Background(), workItemID)
			if err != nil {
				printError(err)
				return
			}

			color.Green("deleted %d links", deleted)
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&workItemID, "work-item-id", "i", "", "work item id (required)")

	return command
}

func blockedStatusCmd() *cobra.Command {
	var workItemID string

	var required = []string{"work-item-id"}

	command := &cobra.Command{
		Use:     "blocked",
		Short:   "show whether a work item is blocked",
		Example: "worklink link blocked -i <work-item-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, err := newClient()
			if err != nil {
				printError(err)
				return
			}

			status, err := client.GetBlockedStatus(context.Background(), workItemID)
			if err != nil {
				printError(err)
				return
			}

			if !status.IsBlocked {
				color.Green("not blocked")
				return
			}

			color.Yellow("blocked by %d work items", len(status.BlockedBy))
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Key", "Title", "Status"})
			for _, item := range status.BlockedBy {
				table.Append([]string{item.ID, item.Key, item.Title, string(item.Status)})
			}
			table.Render()
		},
	}

	bindContextFlags(command)
	command.Flags().StringVarP(&workItemID, "work-item-id", "i", "", "work item id (required)")

	return command
}

func linkTypesCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "types",
		Short: "list the link types",
		Run: func(cmd *cobra.Command, args []string) {
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Type", "Label", "Inverse", "Category"})
			metadata := model.LinkTypeMetadata()
			for _, lt := range model.LinkTypes() {
				info := metadata[lt]
				table.Append([]string{lt.String(), info.Label, info.Inverse.String(), string(info.Category)})
			}
			table.Render()
		},
	}

	return command
}

func printLinks(links []*model.WorkItemLink) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Source", "Type", "Target", "Created By", "Created At"})
	for _, l := range links {
		table.Append([]string{l.ID, l.SourceWorkItemID, l.LinkType.String(), l.TargetWorkItemID, l.CreatedBy, l.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	table.Render()
	fmt.Println("links: " + strconv.Itoa(len(links)))
}
