package console

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/expense-tracker/internal/tracker"
	"github.com/frahmantamala/expense-tracker/internal/user"
)

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, c *Console, args string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":       {"help", "show this help", runHelp},
		"login":      {"login <email>", "sign in; the password is asked for", runLogin},
		"signup":     {"signup <email>", "create an account; the password is asked for", runSignUp},
		"logout":     {"logout", "sign out", runLogout},
		"list":       {"list", "reload and show your expenses", runList},
		"search":     {"search [text]", "filter by category; empty clears the filter", runSearch},
		"add":        {"add [category amount [comments]]", "open the form for a new expense, or add one directly", runAdd},
		"edit":       {"edit <row>", "open the form on a listed expense", runEdit},
		"set":        {"set <category|amount|comments> <value>", "change a field of the open form", runSet},
		"form":       {"form", "show the open form", runForm},
		"submit":     {"submit", "save the open form", runSubmit},
		"cancel":     {"cancel", "discard the open form", runCancel},
		"delete":     {"delete <row>", "delete a listed expense", runDelete},
		"categories": {"categories", "categories you have used", runCategories},
		"profile":    {"profile [display_name|college_name <value>]", "show or change your profile", runProfile},
	}
}

func runHelp(_ context.Context, c *Console, _ string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", commands[name].usage, commands[name].help)
	}
	fmt.Fprintf(tw, "  quit\tleave\n")
	return tw.Flush()
}

func runLogin(ctx context.Context, c *Console, args string) error {
	email := strings.TrimSpace(args)
	if email == "" {
		return usageError{commands["login"].usage}
	}
	password, ok := c.readPassword("password: ")
	if !ok {
		return nil
	}

	if err := c.account.SignIn(ctx, email, password); err != nil {
		c.Notify(tracker.Notification{Kind: tracker.Error, Title: "Login Failed", Message: err.Error()})
		return nil
	}
	c.Notify(tracker.Notification{Kind: tracker.Success, Title: "Login Successful"})
	c.home(ctx)
	return nil
}

func runSignUp(ctx context.Context, c *Console, args string) error {
	email := strings.TrimSpace(args)
	if email == "" {
		return usageError{commands["signup"].usage}
	}
	password, ok := c.readPassword("password: ")
	if !ok {
		return nil
	}

	if err := c.account.SignUp(ctx, email, password); err != nil {
		c.Notify(tracker.Notification{Kind: tracker.Error, Title: "Sign Up Failed", Message: err.Error()})
		return nil
	}
	c.Notify(tracker.Notification{Kind: tracker.Success, Title: "Account Created", Message: "You can now log in with " + email})
	return nil
}

func runLogout(ctx context.Context, c *Console, _ string) error {
	if err := c.account.SignOut(ctx); err != nil {
		return err
	}
	c.home(ctx)
	return nil
}

func runList(ctx context.Context, c *Console, _ string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		if err := ctrl.Refresh(ctx); err != nil {
			fmt.Fprintln(c.out, "showing the last loaded list")
		}
		c.render()
		return nil
	})
}

func runSearch(ctx context.Context, c *Console, args string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		ctrl.SetFilter(args)
		c.render()
		return nil
	})
}

func runAdd(ctx context.Context, c *Console, args string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		if err := ctrl.OpenForAdd(); err != nil {
			return err
		}
		if args == "" {
			fmt.Fprintln(c.out, "new expense: set category, amount and comments, then submit")
			return nil
		}

		parts := strings.SplitN(args, " ", 3)
		values := []string{tracker.FieldCategory, tracker.FieldAmount, tracker.FieldComments}
		for i, part := range parts {
			if err := ctrl.SetField(values[i], strings.TrimSpace(part)); err != nil {
				return err
			}
		}
		return c.submit(ctx, ctrl)
	})
}

func runEdit(ctx context.Context, c *Console, args string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		row, err := c.row(args, "edit")
		if err != nil {
			return err
		}
		if err := ctrl.OpenForEdit(row.ID); err != nil {
			return err
		}
		c.showForm(ctrl.Form())
		return nil
	})
}

func runSet(ctx context.Context, c *Console, args string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		field, value, _ := strings.Cut(args, " ")
		if field == "" {
			return usageError{commands["set"].usage}
		}
		return ctrl.SetField(strings.ToLower(field), value)
	})
}

func runForm(ctx context.Context, c *Console, _ string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		form := ctrl.Form()
		if !form.Open() {
			return tracker.ErrEditorClosed
		}
		c.showForm(form)
		return nil
	})
}

func runSubmit(ctx context.Context, c *Console, _ string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		return c.submit(ctx, ctrl)
	})
}

func runCancel(ctx context.Context, c *Console, _ string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		return ctrl.Cancel()
	})
}

func runDelete(ctx context.Context, c *Console, args string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		row, err := c.row(args, "delete")
		if err != nil {
			return err
		}
		if err := ctrl.Delete(ctx, row.ID); err != nil {
			return nil
		}
		c.render()
		return nil
	})
}

func runCategories(ctx context.Context, c *Console, _ string) error {
	return c.protected(ctx, func(ctrl *tracker.Controller) error {
		categories, err := c.store.Categories(ctx, ctrl.Session().UserID)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			fmt.Fprintln(c.out, "no categories yet")
			return nil
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tRECORDS")
		for _, cat := range categories {
			fmt.Fprintf(tw, "%s\t%d\n", cat.Name, cat.Count)
		}
		return tw.Flush()
	})
}

func runProfile(ctx context.Context, c *Console, args string) error {
	return c.protected(ctx, func(*tracker.Controller) error {
		var (
			profile *user.Profile
			err     error
		)

		if args == "" {
			profile, err = c.account.Profile(ctx)
		} else {
			field, value, _ := strings.Cut(args, " ")
			var dto user.UpdateProfileDTO
			switch strings.ToLower(field) {
			case "display_name":
				dto.DisplayName = &value
			case "college_name":
				dto.CollegeName = &value
			default:
				return usageError{commands["profile"].usage}
			}
			profile, err = c.account.UpdateProfile(ctx, dto)
			if err == nil {
				c.Notify(tracker.Notification{Kind: tracker.Success, Title: "Profile updated"})
			}
		}
		if err != nil {
			c.Notify(tracker.Notification{Kind: tracker.Error, Title: "Profile", Message: err.Error()})
			return nil
		}

		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "email\t%s\n", profile.Email)
		fmt.Fprintf(tw, "display name\t%s\n", orPlaceholder(profile.DisplayName))
		fmt.Fprintf(tw, "college\t%s\n", orPlaceholder(profile.CollegeName))
		return tw.Flush()
	})
}

// submit saves the form; failures were already notified by the controller.
func (c *Console) submit(ctx context.Context, ctrl *tracker.Controller) error {
	if err := ctrl.Submit(ctx); err != nil {
		return nil
	}
	c.Notify(tracker.Notification{Kind: tracker.Success, Title: "Expense saved"})
	c.render()
	return nil
}

// row resolves a 1-based row number from the last rendered list.
func (c *Console) row(arg, name string) (tracker.Row, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return tracker.Row{}, usageError{commands[name].usage}
	}
	if n < 1 || n > len(c.rows) {
		return tracker.Row{}, tracker.ErrNoSuchRecord
	}
	return c.rows[n-1], nil
}

func (c *Console) render() {
	if c.ctrl == nil {
		return
	}
	query := c.ctrl.Query()
	c.rows = tracker.BuildRows(c.ctrl.Records(), query, c.loc)

	if query != "" {
		fmt.Fprintf(c.out, "filter: %q\n", query)
	}
	if len(c.rows) == 0 {
		fmt.Fprintln(c.out, "no expenses")
		return
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCATEGORY\tAMOUNT\tCOMMENTS\tCREATED\tUPDATED")
	for i, r := range c.rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, r.Category, r.Amount, r.Comments, r.CreatedAt, r.UpdatedAt)
	}
	_ = tw.Flush()
}

func (c *Console) showForm(form tracker.FormState) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "mode\t%s\n", form.Mode)
	fmt.Fprintf(tw, "category\t%s\n", form.Fields.Category)
	fmt.Fprintf(tw, "amount\t%s\n", form.Fields.Amount)
	fmt.Fprintf(tw, "comments\t%s\n", form.Fields.Comments)
	_ = tw.Flush()
}

func orPlaceholder(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
