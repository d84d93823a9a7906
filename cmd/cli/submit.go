package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/akeren/digitalcraft-dispatch/internal/catalog"
	"github.com/akeren/digitalcraft-dispatch/internal/form"
	"github.com/akeren/digitalcraft-dispatch/internal/submission"
	"github.com/spf13/cobra"
)

func slotValues() []string {
	slots := catalog.Slots()
	values := make([]string, len(slots))
	for i, s := range slots {
		values[i] = s.Value
	}
	return values
}

var contactFields = []field{
	{name: form.FieldName, label: "Full name", required: true},
	{name: form.FieldEmail, label: "Email address", required: true},
	{name: form.FieldCompany, label: "Company"},
	{name: form.FieldService, label: "Service needed", required: true, choices: catalog.Services},
	{name: form.FieldBudget, label: "Project budget"},
	{name: form.FieldMessage, label: "Project details", required: true},
}

var meetingFields = []field{
	{name: form.FieldName, label: "Full name", required: true},
	{name: form.FieldEmail, label: "Email address", required: true},
	{name: form.FieldDate, label: "Preferred date (YYYY-MM-DD)", required: true},
	{name: form.FieldTime, label: "Preferred time", required: true, choices: slotValues()},
	{name: form.FieldTimezone, label: "Timezone"},
	{name: form.FieldMessage, label: "What would you like to discuss?"},
}

func newContactCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a project enquiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state := form.NewContact()
			defer state.Reset()

			if err := fill(cmd, app, state, contactFields); err != nil {
				return err
			}

			sub := state.Contact()
			if err := validateContact(sub); err != nil {
				return err
			}

			client, err := app.newClient()
			if err != nil {
				return err
			}

			outcome, err := client.SubmitContact(cmd.Context(), sub)
			return report(app, outcome, err)
		},
	}

	bindFields(cmd, contactFields)
	return cmd
}

func newMeetingCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Book a 30 minute consultation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state := form.NewMeeting()
			defer state.Reset()

			if err := fill(cmd, app, state, meetingFields); err != nil {
				return err
			}

			req := state.Meeting(localTimezone())
			if err := validateMeeting(req, app.now()); err != nil {
				return err
			}

			client, err := app.newClient()
			if err != nil {
				return err
			}

			outcome, err := client.ScheduleMeeting(cmd.Context(), req)
			return report(app, outcome, err)
		},
	}

	bindFields(cmd, meetingFields)
	return cmd
}

func report(app *cliApp, outcome submission.Outcome, err error) error {
	fmt.Fprintln(app.out, outcome.String())
	return err
}

func validateContact(c form.ContactSubmission) error {
	var problems []string
	for name, v := range map[string]string{
		form.FieldName:    c.Name,
		form.FieldEmail:   c.Email,
		form.FieldService: c.Service,
		form.FieldMessage: c.Message,
	} {
		if strings.TrimSpace(v) == "" {
			problems = append(problems, name+" is required")
		}
	}
	if c.Service != "" && !catalog.IsService(c.Service) {
		problems = append(problems, fmt.Sprintf("unknown service %q", c.Service))
	}
	if !catalog.IsBudget(c.Budget) {
		problems = append(problems, fmt.Sprintf("unknown budget %q", c.Budget))
	}

	return joinProblems(problems)
}

func validateMeeting(m form.MeetingRequest, now time.Time) error {
	var problems []string
	if strings.TrimSpace(m.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(m.Email) == "" {
		problems = append(problems, "email is required")
	}
	if !catalog.InDateWindow(m.Date, now) {
		first, last := catalog.DateWindow(now)
		problems = append(problems, fmt.Sprintf("date must be between %s and %s",
			first.Format(catalog.DateLayout), last.Format(catalog.DateLayout)))
	}
	if !catalog.IsSlot(m.Time) {
		problems = append(problems, "time must be an hourly slot from 09:00 to 18:00")
	}

	return joinProblems(problems)
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	// map iteration order varies; keep messages stable
	slices.Sort(problems)
	return errors.New(strings.Join(problems, "; "))
}

// localTimezone mirrors what a browser would report for the submitter.
func localTimezone() string {
	if tz := strings.TrimSpace(os.Getenv("TZ")); tz != "" {
		return tz
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}
