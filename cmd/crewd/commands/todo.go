package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/crewforge/crewd/internal/app/todo"
	"github.com/crewforge/crewd/internal/model"
)

func newTodoService(ctx context.Context, rootCmd *RootCommand) (*todo.Service, func() error, error) {
	repo, closeRepo, err := rootCmd.StateRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	svc, err := todo.NewService(todo.ServiceConfig{
		Repository: repo,
		Logger:     rootCmd.Logger,
	})
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("could not create todo service: %w", err)
	}

	return svc, closeRepo, nil
}

type TodoAddCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	description []string
	priority    string
}

// NewTodoAddCommand returns the todo add command.
func NewTodoAddCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TodoAddCommand {
	c := &TodoAddCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("add", "Add a work item to the pending list.")
	c.Cmd.Arg("description", "Work item description.").Required().StringsVar(&c.description)
	c.Cmd.Flag("priority", "Work item priority.").Short('p').Default(string(model.WorkItemPriorityMedium)).EnumVar(&c.priority,
		string(model.WorkItemPriorityHigh), string(model.WorkItemPriorityMedium), string(model.WorkItemPriorityLow))

	return c
}

func (c TodoAddCommand) Name() string { return c.Cmd.FullCommand() }

func (c TodoAddCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newTodoService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	item, err := svc.Add(ctx, todo.AddRequest{
		Description: strings.Join(c.description, " "),
		Priority:    model.WorkItemPriority(c.priority),
	})
	if err != nil {
		return fmt.Errorf("could not add work item: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Added #%d: %s (%s)\n", item.ID, item.Description, item.Priority)

	return nil
}

type TodoCompleteCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	match []string
}

// NewTodoCompleteCommand returns the todo complete command.
func NewTodoCompleteCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TodoCompleteCommand {
	c := &TodoCompleteCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("complete", "Mark the first pending work item matching the given text as done.")
	c.Cmd.Arg("match", "Text to match against pending work item descriptions.").Required().StringsVar(&c.match)

	return c
}

func (c TodoCompleteCommand) Name() string { return c.Cmd.FullCommand() }

func (c TodoCompleteCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newTodoService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	item, err := svc.Complete(ctx, strings.Join(c.match, " "))
	if err != nil {
		return fmt.Errorf("could not complete work item: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Completed #%d: %s\n", item.ID, item.Description)

	return nil
}

type TodoListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	output string
}

// NewTodoListCommand returns the todo list command.
func NewTodoListCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TodoListCommand {
	c := &TodoListCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("list", "List pending and completed work items.")
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputFormatTable).EnumVar(&c.output, OutputFormatTable, OutputFormatJSON)

	return c
}

func (c TodoListCommand) Name() string { return c.Cmd.FullCommand() }

func (c TodoListCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newTodoService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	list, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list work items: %w", err)
	}

	return c.rootCmd.Printer(c.output).PrintWorkItems(list.Pending, list.Completed)
}

type TodoClearCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewTodoClearCommand returns the todo clear command.
func NewTodoClearCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TodoClearCommand {
	c := &TodoClearCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("clear", "Remove all pending and completed work items.")

	return c
}

func (c TodoClearCommand) Name() string { return c.Cmd.FullCommand() }

func (c TodoClearCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newTodoService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	if err := svc.Clear(ctx); err != nil {
		return fmt.Errorf("could not clear work items: %w", err)
	}

	fmt.Fprintln(c.rootCmd.Stdout, "Work items cleared")

	return nil
}
