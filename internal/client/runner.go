package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pixgate/internal/captcha"
	"pixgate/internal/constants"
)

// Run drives one interactive session: fetch tiles, read a selection and a
// message from in, submit, and start over on a wrong answer.
func Run(ctx context.Context, c *Client, dir string, in io.Reader) error {
	reader := bufio.NewReader(in)

	for {
		PrintStep("Downloading challenge")
		paths, err := c.FetchImages(ctx, dir)
		if err != nil {
			return err
		}
		for i, p := range paths {
			PrintField(fmt.Sprintf("[%d]", i), p, ColorCyan)
		}
		fmt.Println()

		PrintStep("Which tiles show the target? (e.g. 0 2 5)")
		fmt.Printf("  %sSelection:%s ", ColorBold, ColorReset)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)
		selected, err := ParseSelection(line)
		if err != nil {
			PrintHint(ColorRed + err.Error() + ColorReset)
			if eof {
				return err
			}
			continue
		}

		var message string
		for {
			PrintStep("Message")
			fmt.Printf("  %sText:%s ", ColorBold, ColorReset)
			line, err := reader.ReadString('\n')
			message = strings.TrimSpace(line)
			if CheckMessage(message) != nil {
				PrintHint(ColorYellow + constants.MsgMessageRequired + ColorReset)
				if errors.Is(err, io.EOF) {
					return captcha.ErrMissingMessage
				}
				continue
			}
			break
		}

		resp, err := c.Send(ctx, message, selected)
		if err != nil {
			return err
		}
		PrintSep()
		switch {
		case resp.Sent:
			fmt.Printf("  %s✓ %s%s\n", ColorGreen, constants.MsgMessageSent, ColorReset)
			return nil
		case !resp.CaptchaIsOk:
			fmt.Printf("  %s✗ %s%s\n", ColorYellow, constants.MsgWrongCaptcha, ColorReset)
			if resp.Error != "" {
				PrintHint(resp.Error)
				return errors.New(resp.Error)
			}
			continue
		default:
			return fmt.Errorf("message not sent: %s", resp.Error)
		}
	}
}
