package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/show-logic-core/internal/infrastructure/config"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/mqtt"
)

// busClient is the part of *mqtt.Client the remote commands use.
type busClient interface {
	PublishJSON(topic string, v any, retained bool) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	QoS() byte
	Close() error
}

// dialBus connects to the broker with a client ID distinct from the running
// server's, so the commands never take over its session.
func (o *options) dialBus(cfg config.MQTTConfig) (busClient, error) {
	if o.dial != nil {
		return o.dial(cfg)
	}
	cfg.Broker.ClientID += "-cli"
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	return client, nil
}

func newRunCommand(opts *options) *cobra.Command {
	var (
		name       string
		midiIndex  int
		slideIndex int
	)

	cmd := &cobra.Command{
		Use:   "run [action-id]",
		Short: "Ask a running server to run an action",
		Long: `Publishes an activation on the bus. The running server picks it up
exactly as it would from any other remote control.

  showlogic run 6f1c...            run by id
  showlogic run --name "house"     run the best name match`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && len(args) == 0 {
				return errors.New("an action id or --name is required")
			}
			if name != "" && len(args) > 0 {
				return errors.New("give either an action id or --name, not both")
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			bus, err := opts.dialBus(cfg.MQTT)
			if err != nil {
				return err
			}
			defer bus.Close()

			topics := mqtt.Topics{}
			if name != "" {
				if err := bus.PublishJSON(topics.ActivateName(), map[string]string{"name": name}, false); err != nil {
					return fmt.Errorf("publishing activation: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requested run of %q\n", name)
				return nil
			}

			id := args[0]
			if err := bus.PublishJSON(topics.ActivateID(id), activationBody(midiIndex, slideIndex), false); err != nil {
				return fmt.Errorf("publishing activation: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requested run of %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Run the action whose name best matches")
	cmd.Flags().IntVar(&midiIndex, "midi-index", -1, "MIDI index merged into every trigger payload")
	cmd.Flags().IntVar(&slideIndex, "slide-index", -1, "Slide whose overlays start_slide_timers uses")
	return cmd
}

// activationBody builds the optional activate/id body; unset indexes are omitted.
func activationBody(midiIndex, slideIndex int) map[string]int {
	body := map[string]int{}
	if midiIndex > -1 {
		body["midiIndex"] = midiIndex
	}
	if slideIndex > -1 {
		body["slideIndex"] = slideIndex
	}
	return body
}

func newActivateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <tag>",
		Short: "Ask a running server to run every action with a custom activation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			bus, err := opts.dialBus(cfg.MQTT)
			if err != nil {
				return err
			}
			defer bus.Close()

			tag := args[0]
			if err := bus.Publish(mqtt.Topics{}.ActivateCustom(tag), []byte{}, bus.QoS(), false); err != nil {
				return fmt.Errorf("publishing activation: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requested activation %q\n", tag)
			return nil
		},
	}
}
