package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/services"
)

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := a.newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		*email = a.prompt(ctx, "Email: ")
	}
	if *password == "" {
		*password = a.prompt(ctx, "Password: ")
	}

	s, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s (%s).\n", s.User.Name, s.User.Role)
	return nil
}

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	fs := a.newFlagSet("signup")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	confirm := fs.String("confirm", "", "password confirmation")
	role := fs.String("role", "fundi", "fundi or foreman")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		*name = a.prompt(ctx, "Name: ")
	}
	if *email == "" {
		*email = a.prompt(ctx, "Email: ")
	}
	if *password == "" {
		*password = a.prompt(ctx, "Password: ")
	}
	if *confirm == "" {
		*confirm = a.prompt(ctx, "Confirm password: ")
	}

	s, err := a.auth.Signup(ctx, models.Registration{
		Name:                 strings.TrimSpace(*name),
		Email:                *email,
		Password:             *password,
		PasswordConfirmation: *confirm,
		Role:                 strings.ToLower(strings.TrimSpace(*role)),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. Logged in as %s (%s).\n", s.User.Name, s.User.Role)
	return nil
}

func (a *app) cmdLogout() error {
	if err := a.auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) cmdJobs(ctx context.Context, args []string) error {
	fs := a.newFlagSet("jobs")
	radius := fs.Float64("radius", a.config.Matching.RadiusKm, "search radius in km")
	manual := fs.String("manual", "", "your location, instead of resolving it")
	watch := fs.Bool("watch", false, "keep the list refreshed until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *radius <= 0 {
		return models.NewValidationError("radius", "Radius must be greater than zero.")
	}

	sess, err := a.auth.Current()
	if err != nil {
		return err
	}
	platform, err := a.locationPlatform()
	if err != nil {
		return err
	}
	reg, publisher, err := a.newRegistry()
	if err != nil {
		return err
	}

	resolver := services.NewLocationResolver(platform, a.config.Location.Timeout, a.logger)
	dashboard := services.NewDashboardService(sess, a.client, resolver, publisher, *radius, a.config.Dashboard.RefreshInterval, a.logger)
	if *manual != "" {
		if err := dashboard.SetManualLocation(*manual); err != nil {
			dashboard.Close()
			return err
		}
	}

	if *watch {
		dashboard.Subscribe(func(feed services.Feed) {
			if feed.Location.Status != models.LocationResolving {
				a.printFeed(feed, *radius)
			}
		})
		reg.RegisterService("dashboard", dashboard)
		if err := reg.StartServices(); err != nil {
			dashboard.Close()
			return err
		}
		<-ctx.Done()
		return reg.StopServices()
	}

	if err := reg.StartServices(); err != nil {
		dashboard.Close()
		return err
	}
	loadErr := dashboard.Load(ctx)
	feed := dashboard.Feed()
	// flushes queued feed events before the broker connection closes
	dashboard.Close()
	if err := reg.StopServices(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to stop services")
	}

	if errors.Is(loadErr, services.ErrJobsLoadFailed) {
		return loadErr
	}
	if loadErr != nil && feed.Location.Status == models.LocationUnresolved {
		fmt.Fprintln(a.errOut, userMessage(loadErr))
	}
	a.printFeed(feed, *radius)
	return nil
}

func (a *app) cmdJob(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: job needs exactly one id", errUsage)
	}

	sess, err := a.auth.Current()
	if err != nil {
		return err
	}
	job, err := services.NewJobService(sess, a.client, a.logger).Detail(ctx, models.ID(args[0]))
	if err != nil {
		return err
	}
	a.printJob(job, sess.User)
	return nil
}

func (a *app) cmdPostJob(ctx context.Context, args []string) error {
	fs := a.newFlagSet("post-job")
	title := fs.String("title", "", "job title")
	description := fs.String("description", "", "what needs doing")
	where := fs.String("location", "", "where the job is")
	budget := fs.String("budget", "0", "budget in KES")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(*budget), 64)
	if err != nil {
		return models.NewValidationError("budget", "Budget must be a number.")
	}

	sess, err := a.auth.Current()
	if err != nil {
		return err
	}
	created, err := services.NewJobService(sess, a.client, a.logger).Post(ctx, models.NewJob{
		Title:       strings.TrimSpace(*title),
		Description: strings.TrimSpace(*description),
		Location:    strings.TrimSpace(*where),
		Budget:      models.Amount(amount),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Job posted! (id %s)\n", created.ID)
	return nil
}

func (a *app) cmdApply(ctx context.Context, args []string) error {
	fs := a.newFlagSet("apply")
	manual := fs.String("manual", "", "your location, instead of resolving it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: apply needs exactly one job id", errUsage)
	}

	sess, err := a.auth.Current()
	if err != nil {
		return err
	}
	if !sess.User.IsFundi() {
		return services.ErrRoleNotAllowed
	}
	job, err := services.NewJobService(sess, a.client, a.logger).Detail(ctx, models.ID(fs.Arg(0)))
	if err != nil {
		return err
	}

	platform, err := a.locationPlatform()
	if err != nil {
		return err
	}
	resolver := services.NewLocationResolver(platform, a.config.Location.Timeout, a.logger)
	defer resolver.Close()

	if *manual != "" {
		if err := resolver.SetManual(*manual); err != nil {
			return err
		}
	} else if _, err := resolver.Resolve(ctx); err != nil {
		fmt.Fprintln(a.errOut, userMessage(err))
		label := a.prompt(ctx, "Enter your location (e.g. Kariobangi, Nairobi): ")
		if label == "" {
			return err
		}
		if err := resolver.SetManual(label); err != nil {
			return err
		}
	}

	if _, err := services.NewApplicationService(sess, a.client, a.logger).Apply(ctx, job, resolver.State()); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Application submitted!")
	return nil
}

func (a *app) cmdMyApplications(ctx context.Context) error {
	sess, err := a.auth.Current()
	if err != nil {
		return err
	}
	apps, err := services.NewApplicationService(sess, a.client, a.logger).MyApplications(ctx)
	if err != nil {
		return err
	}
	a.printMyApplications(apps)
	return nil
}

func (a *app) cmdJobApplications(ctx context.Context) error {
	sess, err := a.auth.Current()
	if err != nil {
		return err
	}
	apps, err := services.NewApplicationService(sess, a.client, a.logger).ApplicationsForMyJobs(ctx)
	if err != nil {
		return err
	}
	a.printJobApplications(apps)
	return nil
}

// prompt returns the trimmed answer, or "" when input ends or ctx is done.
func (a *app) prompt(ctx context.Context, label string) string {
	fmt.Fprint(a.errOut, label)
	line, err := a.in.ReadLine(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
