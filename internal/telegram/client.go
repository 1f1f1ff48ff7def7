package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the Bot API client.
type Options struct {
	Token          string
	BaseURL        string // defaults to https://api.telegram.org
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the Telegram Bot API.
type Client struct {
	apiURL     string // <base>/bot<token>
	fileURL    string // <base>/file/bot<token>
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a client from options, applying defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("telegram: token is required")
	}
	base := opts.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiURL:     base + "/bot" + opts.Token,
		fileURL:    base + "/file/bot" + opts.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

type messageResult struct {
	MessageID int64 `json:"message_id"`
}

// SendMessage sends a plain text message and returns its message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	return c.sendMessage(ctx, chatID, text, nil, 0)
}

// SendMessageWithKeyboard sends text with an inline keyboard attached.
func (c *Client) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, kb Keyboard) (int64, error) {
	return c.sendMessage(ctx, chatID, text, kb, 0)
}

// ReplyMessage sends text as a reply to another message in the chat.
func (c *Client) ReplyMessage(ctx context.Context, chatID int64, text string, replyTo int64) (int64, error) {
	return c.sendMessage(ctx, chatID, text, nil, replyTo)
}

func (c *Client) sendMessage(ctx context.Context, chatID int64, text string, kb Keyboard, replyTo int64) (int64, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	if kb != nil {
		markup, err := json.Marshal(kb)
		if err != nil {
			return 0, fmt.Errorf("telegram: marshal keyboard: %w", err)
		}
		params.Set("reply_markup", string(markup))
	}
	if replyTo != 0 {
		params.Set("reply_to_message_id", strconv.FormatInt(replyTo, 10))
	}

	raw, err := c.call(ctx, "sendMessage", params)
	if err != nil {
		return 0, err
	}
	var msg messageResult
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, fmt.Errorf("telegram: decode sendMessage result: %w", err)
	}
	return msg.MessageID, nil
}

// EditMessage replaces the text (and keyboard, when given) of a sent message.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string, kb Keyboard) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("message_id", strconv.FormatInt(messageID, 10))
	params.Set("text", text)
	if kb != nil {
		markup, err := json.Marshal(kb)
		if err != nil {
			return fmt.Errorf("telegram: marshal keyboard: %w", err)
		}
		params.Set("reply_markup", string(markup))
	}
	_, err := c.call(ctx, "editMessageText", params)
	return err
}

// SendPhoto uploads image bytes with a caption and returns the file id
// Telegram assigned to the largest stored rendition.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, caption string, photo []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", "result.jpg")
	if err != nil {
		return "", fmt.Errorf("telegram: build multipart: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return "", fmt.Errorf("telegram: write photo part: %w", err)
	}
	_ = writer.WriteField("chat_id", strconv.FormatInt(chatID, 10))
	_ = writer.WriteField("caption", caption)
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("telegram: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/sendPhoto", &body)
	if err != nil {
		return "", fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	raw, err := c.do(req, "sendPhoto")
	if err != nil {
		return "", err
	}
	var msg struct {
		Photo []PhotoSize `json:"photo"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", fmt.Errorf("telegram: decode sendPhoto result: %w", err)
	}
	if len(msg.Photo) == 0 {
		return "", fmt.Errorf("telegram: sendPhoto returned no photo sizes")
	}
	return msg.Photo[len(msg.Photo)-1].FileID, nil
}

// SendTyping shows the "typing…" indicator in the chat.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("action", "typing")
	_, err := c.call(ctx, "sendChatAction", params)
	return err
}

// ForwardMessage copies a message into another chat and returns the new id.
func (c *Client) ForwardMessage(ctx context.Context, fromChatID, toChatID, messageID int64) (int64, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(toChatID, 10))
	params.Set("from_chat_id", strconv.FormatInt(fromChatID, 10))
	params.Set("message_id", strconv.FormatInt(messageID, 10))

	raw, err := c.call(ctx, "forwardMessage", params)
	if err != nil {
		return 0, err
	}
	var msg messageResult
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, fmt.Errorf("telegram: decode forwardMessage result: %w", err)
	}
	return msg.MessageID, nil
}

// AnswerCallbackQuery acknowledges a button press so the client stops its spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	params := url.Values{}
	params.Set("callback_query_id", callbackQueryID)
	_, err := c.call(ctx, "answerCallbackQuery", params)
	return err
}

// DownloadFile resolves a file id to its storage path and fetches the bytes.
// Files above the inbound image limit are refused before download.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	params := url.Values{}
	params.Set("file_id", fileID)
	raw, err := c.call(ctx, "getFile", params)
	if err != nil {
		return nil, err
	}
	var file struct {
		FilePath string `json:"file_path"`
		FileSize int64  `json:"file_size"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("telegram: decode getFile result: %w", err)
	}
	if file.FileSize > maxFileBytes {
		return nil, ErrTooBig
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileURL+"/"+file.FilePath, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: build file request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("telegram: read file body: %w", err)
	}
	if int64(len(data)) > maxFileBytes {
		return nil, ErrTooBig
	}
	return data, nil
}

// SetWebhook registers the webhook URL Telegram should post updates to.
func (c *Client) SetWebhook(ctx context.Context, hookURL string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("url", hookURL)
	return c.call(ctx, "setWebhook", params)
}

// Call invokes an argument-less Bot API method, e.g. getMe or getWebhookInfo.
func (c *Client) Call(ctx context.Context, method string) (json.RawMessage, error) {
	return c.call(ctx, method, url.Values{})
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method,
		bytes.NewBufferString(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("telegram: %s: decode response: %w", method, err)
	}
	if !parsed.OK {
		c.logger.Warn().Str("method", method).Str("description", parsed.Description).
			Msg("telegram api call failed")
		return nil, fmt.Errorf("telegram: %s: %s", method, parsed.Description)
	}
	return parsed.Result, nil
}
