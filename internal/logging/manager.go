package logging

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Components реестр логгеров компонентов процесса. Общие пороги применяются
// и к уже открытым логгерам, и к тем, что будут открыты позже.
type Components struct {
	mu      sync.Mutex
	open    func(component string) (*Logger, error)
	loggers map[string]*Logger
	console LogLevel
	file    LogLevel
}

// NewComponents создает реестр; open открывает логгер нового компонента
func NewComponents(open func(component string) (*Logger, error)) *Components {
	return &Components{
		open:    open,
		loggers: make(map[string]*Logger),
		console: INFO,
		file:    TRACE,
	}
}

// Get возвращает логгер компонента, открывая его при первом обращении.
// Если файл лога открыть не удалось, компонент пишет только в stdout.
func (c *Components) Get(component string) *Logger {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.loggers[component]; ok {
		return l
	}
	l, err := c.open(component)
	if err != nil {
		l = NewWriterLogger(component, os.Stdout, c.console)
		l.Warn("файловый лог недоступен: %v", err)
	}
	l.SetLevels(c.console, c.file)
	c.loggers[component] = l
	return l
}

// SetLevels задает пороги всем компонентам
func (c *Components) SetLevels(console, file LogLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.console, c.file = console, file
	for _, l := range c.loggers {
		l.SetLevels(console, file)
	}
}

// SetComponentLevels меняет пороги одного уже открытого компонента
func (c *Components) SetComponentLevels(component string, console, file LogLevel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.loggers[component]
	if !ok {
		return fmt.Errorf("logger for component %s not found", component)
	}
	l.SetLevels(console, file)
	return nil
}

// CloseAll закрывает файлы всех компонентов и забывает их логгеры
func (c *Components) CloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for component, l := range c.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger %s: %w", component, err))
		}
	}
	clear(c.loggers)
	return errors.Join(errs...)
}

var components = NewComponents(NewLogger)

// Component логгер компонента из реестра процесса
func Component(name string) *Logger {
	return components.Get(name)
}

// SetLevels задает пороги логгеру по умолчанию и всем компонентам
func SetLevels(console, file LogLevel) {
	SetDefaultLevels(console, file)
	components.SetLevels(console, file)
}

// CloseComponents закрывает логгеры компонентов процесса
func CloseComponents() error {
	return components.CloseAll()
}
