package discord

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/pkg/cmd"
)

// registerCommands syncs slash commands for a guild with Discord:
// deletes obsolete ones, creates/updates commands whose definition has changed.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}
	ctx := context.Background()

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("failed to list commands: %w", err)
	}
	local := buildCommandDefinitions(b.registry)

	cached, err := b.storage.LoadCommandHashes(ctx, guildID)
	if err != nil {
		return err
	}
	plan := planSync(remote, local, cached)

	log := b.logger.With().Str("guild", guildID).Logger()
	for _, rc := range plan.obsolete {
		log.Info().Str("command", rc.Name).Msg("deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Error().Err(err).Str("command", rc.Name).Msg("failed to delete command")
		}
	}
	for _, d := range plan.changed {
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			log.Error().Err(err).Str("command", d.Name).Msg("failed to register command")
			delete(plan.hashes, d.Name)
			continue
		}
		log.Info().Str("command", d.Name).Msg("registered command")
		time.Sleep(25 * time.Millisecond)
	}

	return b.storage.SaveCommandHashes(ctx, guildID, plan.hashes)
}

type syncPlan struct {
	obsolete []*discordgo.ApplicationCommand
	changed  []*discordgo.ApplicationCommand
	hashes   map[string]string
}

// planSync decides which remote commands to delete and which local
// definitions to (re)create. A definition is pushed when its hash differs
// from the cached one or when Discord does not know it.
func planSync(remote, local []*discordgo.ApplicationCommand, cached map[string]string) syncPlan {
	plan := syncPlan{hashes: make(map[string]string, len(local))}

	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}
	remoteNames := make(map[string]struct{}, len(remote))
	for _, rc := range remote {
		remoteNames[rc.Name] = struct{}{}
		if _, ok := localNames[rc.Name]; !ok {
			plan.obsolete = append(plan.obsolete, rc)
		}
	}

	for _, d := range local {
		h := hashCommand(d)
		plan.hashes[d.Name] = h
		_, known := remoteNames[d.Name]
		if !known || cached[d.Name] != h {
			plan.changed = append(plan.changed, d)
		}
	}
	return plan
}

// buildCommandDefinitions returns ApplicationCommand definitions for all registered commands.
func buildCommandDefinitions(reg *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range reg.GetAll() {
		if def := commandDefinition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

// commandDefinition extracts the slash definition from a registered command,
// walking through middleware wrappers via cmd.Root.
func commandDefinition(c cmd.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.Root(c).(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def == nil {
		return nil
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// appID returns the bot's application ID, fetching from Discord if not cached in State.
func (b *Bot) appID() (string, error) {
	if b.dg.State != nil && b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]interface{} {
	out := make([]map[string]interface{}, len(opts))
	for i, o := range opts {
		entry := map[string]interface{}{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if o.MinValue != nil {
			entry["min_value"] = *o.MinValue
		}
		if o.MaxValue != 0 {
			entry["max_value"] = o.MaxValue
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]interface{}, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]interface{}{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
