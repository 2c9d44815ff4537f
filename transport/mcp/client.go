package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/snake-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snake Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snake Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Steer the snake (@ is the head, o the body) to eat food (*) without hitting
a wall (#) or your own body. Each food grows the snake by one cell.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage sessions
- snapshot: current board and state
- play: one step in a direction
- bulk_play: up to 100 steps, stops at the first game over
- reset_game: start a new run on the same level
- start / steer / stop: run the session on the server tick
- list_levels / get_level / save_level: levels
- game_instructions: rules and board legend

NOTE: the 'intent' parameter on play/bulk_play serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func directionProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"up", "down", "left", "right"},
		"description": description,
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProperty(),
		},
		Required: []string{"session_id"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session, optionally on a named level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID to play (optional, see list_levels)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "snapshot",
		Description: "Get the current board, snake, food and score",
		InputSchema: sessionOnlySchema(),
	}, c.handleSnapshot)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "play",
		Description: "Advance the snake one step. Reversing onto the neck keeps the current direction.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction":  directionProperty("Direction to move"),
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this play (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handlePlay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_play",
		Description: fmt.Sprintf("Play up to %d directions in sequence, stopping at the first game over", service.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"directions": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
					"description": "Directions to play in order",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "directions"},
		},
	}, c.handleBulkPlay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a new run on the session's level",
		InputSchema: sessionOnlySchema(),
	}, c.handleReset)

	// Real-time play
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start",
		Description: "Run the session on the server tick until it stops or the game ends",
		InputSchema: sessionOnlySchema(),
	}, c.handleStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "steer",
		Description: "Set the direction used on the next tick of a running session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction":  directionProperty("Direction for the next tick"),
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleSteer)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop",
		Description: "Stop a running session",
		InputSchema: sessionOnlySchema(),
	}, c.handleStop)

	// Levels
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_level",
		Description: "Show a level's rows and its level text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID",
				},
			},
			Required: []string{"level"},
		},
	}, c.handleGetLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_level",
		Description: "Validate and save a level. Text format: 'W,H' line, H rows of 'w' (wall) or ' ' (free), 'x,y' food line, 'x,y;x,y;...' snake line (head first).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Level ID (lowercase letters, digits, '-' and '_')",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Level text",
				},
			},
			Required: []string{"name", "text"},
		},
	}, c.handleSaveLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the game rules and board legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func stringArg(request mcp.CallToolRequest, key string) string {
	s, _ := request.GetArguments()[key].(string)
	return s
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if level := stringArg(request, "level"); level != "" {
		body["level"] = level
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s", session.ID, session.LevelName, formatGameState(session.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "idle"
		if s.State != nil {
			switch {
			case s.State.GameOver:
				status = "game over (" + s.State.GameOverCode + ")"
			case s.State.Running:
				status = "running"
			}
		}
		fmt.Fprintf(&b, "- %s (Level: %s, Created: %s, %s)\n",
			s.ID, s.LevelName, s.CreatedAt.Format("15:04:05"), status)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(stringArg(request, "session_id"), ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state service.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(stringArg(request, "session_id"), "/snapshot"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handlePlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request, "session_id")
	body := map[string]string{
		"direction": stringArg(request, "direction"),
	}

	var result service.PlayResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/play"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlayResult(&result)), nil
}

func (c *Client) handleBulkPlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request, "session_id")
	raw, _ := request.GetArguments()["directions"].([]interface{})

	directions := make([]string, 0, len(raw))
	for _, d := range raw {
		if dir, ok := d.(string); ok {
			directions = append(directions, dir)
		}
	}

	body := map[string]interface{}{
		"directions": directions,
	}

	var result service.BulkPlayResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-play"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkPlayResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Message string             `json:"message"`
		State   *service.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(stringArg(request, "session_id"), "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateCall(ctx, "/start", stringArg(request, "session_id"), nil, "Started")
}

func (c *Client) handleSteer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	direction := stringArg(request, "direction")
	body := map[string]string{"direction": direction}
	return c.stateCall(ctx, "/steer", stringArg(request, "session_id"), body, "Steering "+direction)
}

func (c *Client) handleStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateCall(ctx, "/stop", stringArg(request, "session_id"), nil, "Stopped")
}

// stateCall posts to a session endpoint that answers with a GameState
func (c *Client) stateCall(ctx context.Context, suffix, sessionID string, body interface{}, title string) (*mcp.CallToolResult, error) {
	var state service.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(title + "\n\n" + formatGameState(&state)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, l := range levels {
		fmt.Fprintf(&b, "• %s\n  Grid: %dx%d, Walls: %d, Snake length: %d\n\n",
			l.LevelID, l.Width, l.Height, l.Walls, l.Length)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(request, "level")

	var detail service.LevelDetail
	if err := c.apiCall(ctx, "GET", "/api/levels/"+url.PathEscape(name), nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLevelDetail(&detail)), nil
}

func (c *Client) handleSaveLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{
		"name": stringArg(request, "name"),
		"text": stringArg(request, "text"),
	}

	var response struct {
		Message string            `json:"message"`
		LevelID string            `json:"level_id"`
		Level   service.LevelInfo `json:"level"`
	}
	if err := c.apiCall(ctx, "POST", "/api/levels", body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s: %s (%dx%d, snake length %d)",
		response.Message, response.LevelID, response.Level.Width, response.Level.Height, response.Level.Length)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Snake Game - Complete Instructions

GAME OBJECTIVE:
Eat as much food as possible. Every food eaten grows the snake by one cell
and adds one point.

BOARD LEGEND:
• # = Wall
• . = Free cell
• @ = Snake head
• o = Snake body
• * = Food

Coordinates are (x,y). The board is printed from row y=0 downwards and
up increases y, so playing up moves the head one printed row lower.

RULES:
• Each play moves the head one cell; the body follows
• Playing the direction opposite to the current one is ignored and the
  snake keeps going straight
• The tail cell is vacated in the same step, so the head may move into it
• Hitting a wall or leaving the grid ends the game (on_wall)
• Running into the body ends the game (on_snake)
• Filling the board so no food can be placed ends the game (board_full)
• After game over every play fails until reset_game

MOVEMENT COMMANDS:
• play: one step, the result shows the step and the new board
• bulk_play: up to 100 steps, stops at the first game over
• start/steer/stop: the server advances the snake on a fixed tick using
  the last steered direction

STRATEGY TIPS:
• Look at the head's neighbours before every play
• Keep an escape route once the snake is long; follow the tail when unsure
• Use bulk_play for straight runs and single plays near walls and body

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s\nRun: %s\nCreated: %s\n\n%s",
		session.ID, session.LevelName, session.RunID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.State))
}

func formatGameState(state *service.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	head := state.Head()
	fmt.Fprintf(&b, "Head: (%d,%d) | Direction: %s | Length: %d | Score: %d | Ticks: %d\n",
		head.X, head.Y, state.Direction, state.Length, state.Score, state.Ticks)
	fmt.Fprintf(&b, "Food: (%d,%d)", state.Food.X, state.Food.Y)
	if state.Running {
		fmt.Fprintf(&b, " | Running (next: %s)", state.Requested)
	}
	b.WriteString("\n\n")

	for _, row := range state.Board {
		b.WriteString(row)
		b.WriteString("\n")
	}

	if state.GameOver {
		fmt.Fprintf(&b, "\n💀 GAME OVER (%s)", state.GameOverCode)
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatStepLine(s service.StepInfo) string {
	status := "✓"
	if !s.Success {
		status = "✗"
	}
	dir := s.Dir
	if s.Applied != "" && s.Applied != s.Dir {
		dir = fmt.Sprintf("%s (kept %s)", s.Dir, s.Applied)
	}
	food := ""
	if s.FoodAte {
		food = " +food"
	}
	return fmt.Sprintf("%d. %s (%d,%d)→(%d,%d) len=%d%s %s\n",
		s.Idx, dir, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Length, food, status)
}

func formatPlayResult(result *service.PlayResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Play successful\n")
	} else {
		fmt.Fprintf(&b, "✗ Game over: %s\n", result.GameOverCode)
	}

	if result.Step != nil {
		b.WriteString("Step: ")
		b.WriteString(formatStepLine(*result.Step))
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.State))
	return b.String()
}

func formatBulkPlayResult(sessionID string, result *service.BulkPlayResult) string {
	var b strings.Builder

	level := ""
	if result.State != nil {
		level = result.State.Level
	}
	fmt.Fprintf(&b, "Session: %s • Level: %s\n", sessionID, level)
	fmt.Fprintf(&b, "Executed %d/%d plays\n", result.MovesExecuted, result.RequestedMoves)
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on play %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	fmt.Fprintf(&b, "Head: (%d,%d)→(%d,%d) • Length: %d→%d • Score +%d\n",
		result.StartHead.X, result.StartHead.Y, result.EndHead.X, result.EndHead.Y,
		result.StartLength, result.EndLength, result.ScoreDelta)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.State))
	return b.String()
}

func formatLevelDetail(detail *service.LevelDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Level: %s (%dx%d, walls %d)\n", detail.LevelID, detail.Width, detail.Height, detail.Walls)
	fmt.Fprintf(&b, "Food: (%d,%d)\n", detail.Food.X, detail.Food.Y)
	if len(detail.Snake) > 0 {
		fmt.Fprintf(&b, "Snake head: (%d,%d), length %d\n", detail.Snake[0].X, detail.Snake[0].Y, len(detail.Snake))
	}
	b.WriteString("\nLevel text:\n")
	b.WriteString(detail.Text)
	return b.String()
}
