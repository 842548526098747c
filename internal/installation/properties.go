package installation

import (
	"bufio"
	"crafthost/internal/domain"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// properties keeps the original line order so rewriting a file only touches
// the keys that changed.
type properties struct {
	lines []string
	index map[string]int
}

func readProperties(path string) (*properties, error) {
	p := &properties{index: make(map[string]int)}

	file, err := os.Open(path)
	if err != nil {
		return p, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		p.lines = append(p.lines, line)

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) == 2 {
			p.index[strings.TrimSpace(parts[0])] = len(p.lines) - 1
		}
	}
	return p, scanner.Err()
}

func (p *properties) get(key string) string {
	i, ok := p.index[key]
	if !ok {
		return ""
	}
	parts := strings.SplitN(p.lines[i], "=", 2)
	return strings.TrimSpace(parts[1])
}

func (p *properties) set(key, value string) {
	line := fmt.Sprintf("%s=%s", key, value)
	if i, ok := p.index[key]; ok {
		p.lines[i] = line
		return
	}
	p.lines = append(p.lines, line)
	p.index[key] = len(p.lines) - 1
}

func (p *properties) write(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, line := range p.lines {
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// Port returns server-port from server.properties, or DefaultPort when the
// file or the key is missing.
func (l Layout) Port() int {
	props, err := readProperties(l.PropertiesPath())
	if err != nil {
		return DefaultPort
	}
	port, err := strconv.Atoi(props.get("server-port"))
	if err != nil || port <= 0 {
		return DefaultPort
	}
	return port
}

// SetPort writes server-port into server.properties, creating the file when
// the server has not generated one yet.
func (l Layout) SetPort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	props, err := readProperties(l.PropertiesPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.IOError("read server.properties", err)
	}
	if len(props.lines) == 0 {
		props.lines = append(props.lines, "#Minecraft server properties")
	}

	props.set("server-port", strconv.Itoa(port))
	if err := props.write(l.PropertiesPath()); err != nil {
		return domain.IOError("write server.properties", err)
	}
	return nil
}
