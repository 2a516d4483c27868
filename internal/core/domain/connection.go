package domain

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// Connection is the credential bundle handed back once by Create.
type Connection interface {
	Engine() Engine
}

type MySQLConnection struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (MySQLConnection) Engine() Engine { return EngineMySQL }

// DSN renders the connection as a go-sql-driver DSN.
func (c MySQLConnection) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	return cfg.FormatDSN()
}

type RedisConnection struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
}

func (RedisConnection) Engine() Engine { return EngineRedis }

func (c RedisConnection) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
