// Command autoplay plays a snake session through the REST API. Each attempt
// resets the session and steers toward the food until the game ends or the
// move budget runs out.
//
//	autoplay --url http://localhost:8080 --level classic --attempts 3
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/snake-game/game/service"
)

// Outcome summarizes one attempt
type Outcome struct {
	Attempt      int
	Moves        int
	Score        int
	Length       int
	GameOverCode string
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play a snake session through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("SNAKE_URL")},
			&cli.StringFlag{Name: "level", Usage: "level to play (server default when empty)"},
			&cli.StringFlag{Name: "session", Usage: "resume an existing session by ID"},
			&cli.IntFlag{Name: "max-moves", Value: 1000, Usage: "maximum plays per attempt"},
			&cli.IntFlag{Name: "attempts", Value: 1, Usage: "number of attempts"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between plays"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every play"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client := NewClient(cmd.String("url"))

			var err error
			if id := cmd.String("session"); id != "" {
				_, err = client.Resume(ctx, id)
			} else {
				_, err = client.CreateSession(ctx, cmd.String("level"))
			}
			if err != nil {
				return err
			}
			log.Printf("Playing session %s on %s", client.SessionID(), cmd.String("url"))

			p := player{
				client:   client,
				maxMoves: int(cmd.Int("max-moves")),
				delay:    cmd.Duration("delay"),
			}
			if cmd.Bool("verbose") {
				p.trace = cmd.Root().Writer
			}

			best := Outcome{}
			for attempt := 1; attempt <= int(cmd.Int("attempts")); attempt++ {
				outcome, err := p.Attempt(ctx, attempt)
				if err != nil {
					return err
				}
				log.Printf("Attempt %d: moves=%d score=%d length=%d end=%s",
					outcome.Attempt, outcome.Moves, outcome.Score, outcome.Length, outcome.GameOverCode)
				if outcome.Score > best.Score || best.Attempt == 0 {
					best = outcome
				}
			}
			log.Printf("Best: attempt %d with score %d (session %s)", best.Attempt, best.Score, client.SessionID())
			return nil
		},
	}
}

type player struct {
	client   *Client
	maxMoves int
	delay    time.Duration
	trace    io.Writer
}

// Attempt resets the session and plays until game over or maxMoves
func (p *player) Attempt(ctx context.Context, attempt int) (Outcome, error) {
	state, err := p.client.Reset(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("reset: %w", err)
	}
	planner := NewPlanner(state)

	outcome := Outcome{Attempt: attempt}
	for outcome.Moves < p.maxMoves && !state.GameOver {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		direction, ok := planner.Next(state)
		if !ok && p.trace != nil {
			fmt.Fprintf(p.trace, "no safe move from %v, playing %s\n", state.Head(), direction)
		}

		result, err := p.client.Play(ctx, direction.String())
		if err != nil {
			return outcome, err
		}
		outcome.Moves++
		state = result.State
		if p.trace != nil {
			fmt.Fprintf(p.trace, "%4d %-5s head=%v len=%d score=%d\n", outcome.Moves, direction, state.Head(), state.Length, state.Score)
		}

		if p.delay > 0 {
			time.Sleep(p.delay)
		}
	}

	outcome.Score = state.Score
	outcome.Length = state.Length
	outcome.GameOverCode = gameOverCode(state)
	return outcome, nil
}

func gameOverCode(state *service.GameState) string {
	if !state.GameOver {
		return "max_moves"
	}
	return state.GameOverCode
}
