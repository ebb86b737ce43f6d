package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/maksimkurb/keen-ipmon/src/internal/config"
	"github.com/maksimkurb/keen-ipmon/src/internal/core"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/service"
)

func CreateRoutesCommand() *RoutesCommand {
	c := &RoutesCommand{
		fs: flag.NewFlagSet("routes", flag.ExitOnError),
	}

	c.fs.StringVar(&c.StatePath, "state", "", "State file to evaluate (default: general.state_file)")
	c.fs.BoolVar(&c.Apply, "apply", false, "Install the routes in the kernel (honors routing.enable)")
	c.fs.BoolVar(&c.JSON, "json", false, "Print the plan as JSON")

	return c
}

// RoutesCommand elects the primaries of the state file and prints the merged
// route list, optionally installing it.
type RoutesCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config

	StatePath string
	Apply     bool
	JSON      bool
}

func (c *RoutesCommand) Name() string {
	return c.fs.Name()
}

func (c *RoutesCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.JSON {
		log.SetForceStdErr(true)
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	return nil
}

func (c *RoutesCommand) Run() error {
	state, err := loadStateOrFail(c.cfg, c.StatePath)
	if err != nil {
		return err
	}

	deps := core.NewAppDependencies(core.AppConfig{Config: c.cfg, DryRun: !c.Apply})
	defer deps.Close()

	routing := deps.RoutingService()
	var plan *service.RoutePlan
	if c.Apply {
		plan, err = routing.Apply(state)
	} else {
		plan, err = routing.Plan(state)
	}
	if err != nil {
		return err
	}

	out := c.ctx.stdout()
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	printPrimary(out, plan.IPv4)
	printPrimary(out, plan.IPv6)
	fmt.Fprintf(out, "\nIPv4 routes (%d):\n", len(plan.Routes))
	for _, r := range plan.Routes {
		fmt.Fprintf(out, "  %s\n", r)
	}
	return nil
}

func printPrimary(out io.Writer, results *election.Results) {
	if results == nil {
		return
	}
	primary := results.PrimaryRecord()
	if primary == nil {
		fmt.Fprintf(out, "%s primary: none (%d candidates)\n", results.Family, results.Len())
		return
	}
	fmt.Fprintf(out, "%s primary: %s via %s", results.Family, primary.ServiceID, primary.InterfaceName)
	if primary.Router != "" {
		fmt.Fprintf(out, " router %s", primary.Router)
	}
	fmt.Fprintf(out, " (%d candidates)\n", results.Len())
}
