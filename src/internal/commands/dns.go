package commands

import (
	"flag"
	"fmt"

	"github.com/maksimkurb/keen-ipmon/src/internal/config"
	"github.com/maksimkurb/keen-ipmon/src/internal/core"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
)

func CreateDNSCommand() *DNSCommand {
	c := &DNSCommand{
		fs: flag.NewFlagSet("dns", flag.ExitOnError),
	}

	c.fs.StringVar(&c.StatePath, "state", "", "State file to build from (default: general.state_file)")
	c.fs.BoolVar(&c.ResolvConf, "resolv-conf", false, "Print the resolv.conf rendering of the default resolver")

	return c
}

// DNSCommand builds the resolver configuration from the state file once and
// prints it.
type DNSCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config

	StatePath  string
	ResolvConf bool
}

func (c *DNSCommand) Name() string {
	return c.fs.Name()
}

func (c *DNSCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.ResolvConf {
		log.SetForceStdErr(true)
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	return nil
}

func (c *DNSCommand) Run() error {
	state, err := loadStateOrFail(c.cfg, c.StatePath)
	if err != nil {
		return err
	}

	deps := core.NewAppDependencies(core.AppConfig{Config: c.cfg, DryRun: true})
	defer deps.Close()

	if err := deps.Validator().ValidateState(state); err != nil {
		return fmt.Errorf("state file validation failed: %w", err)
	}

	dnsService := deps.DNSService()
	resolvers := dnsService.Build(state)

	out := c.ctx.stdout()
	if c.ResolvConf {
		fmt.Fprint(out, dnsService.FormatResolvConf(resolvers))
		return nil
	}
	fmt.Fprint(out, resolvers.String())
	return nil
}
