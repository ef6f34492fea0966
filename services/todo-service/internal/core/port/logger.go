package port

import "github.com/eliyaaki/todo-micro-services/pkg/logger"

type Fields = logger.Fields

type LoggerPort = logger.LoggerPort
