// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func pageFlags(defaultSize int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number (zero-based)",
			Value: 0,
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "Page size",
			Value: defaultSize,
		},
	}
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize the local cache database and config file",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles the session lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Session management",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password (read from stdin when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "social",
				Usage: "Log in via an identity provider in the browser",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Identity provider (google, naver, kakao)",
						Value: "google",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Loopback port for the provider redirect",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser redirect",
						Value: 0,
					},
				},
				Action: r.AuthSocial,
			},
			{
				Name:   "logout",
				Usage:  "End the session everywhere on this machine",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session state",
				Action: r.AuthStatus,
			},
			{
				Name:  "signup",
				Usage: "Create a new account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password (read from stdin when omitted)",
					},
					&cli.StringFlag{
						Name:  "nickname",
						Usage: "Display name",
					},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "refresh",
				Usage:  "Force a credential renewal",
				Action: r.AuthRefresh,
			},
		},
	}
}

// videosCommand handles catalog, playback, and uploader operations
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "videos",
		Aliases: []string{"v"},
		Usage:   "Browse, watch, and publish videos",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the published catalog",
				Flags: append(pageFlags(20),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Filter a cached listing by category slug",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.VideosList,
			},
			{
				Name:  "mine",
				Usage: "List your own uploads with processing state",
				Flags: append(pageFlags(20),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.VideosMine,
			},
			{
				Name:  "get",
				Usage: "Show a single video",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.VideosGet,
			},
			{
				Name:  "watch",
				Usage: "Resolve a playback URL and open it in the browser",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-open",
						Usage: "Print the URL without opening a browser",
					},
				},
				Action: r.VideosWatch,
			},
			{
				Name:  "upload",
				Usage: "Upload a video and wait for encoding",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Video title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Video description",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category slug",
						Value: "all",
					},
					&cli.StringFlag{
						Name:  "age-rating",
						Usage: "Age rating (ALL, 12, 15, 18)",
						Value: "ALL",
					},
					&cli.StringFlag{
						Name:  "thumbnail",
						Usage: "Optional thumbnail image path",
					},
					&cli.BoolFlag{
						Name:  "no-wait",
						Usage: "Return immediately instead of waiting for encoding",
					},
				},
				Action: r.VideosUpload,
			},
			{
				Name:  "update",
				Usage: "Edit a video's metadata",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "description", Usage: "New description"},
					&cli.StringFlag{Name: "category", Usage: "New category slug"},
					&cli.StringFlag{Name: "age-rating", Usage: "New age rating"},
				},
				Action: r.VideosUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete one of your videos",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.VideosDelete,
			},
			{
				Name:  "export",
				Usage: "Export videos by ID to files",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ids"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, txt)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent export workers",
						Value: 5,
					},
				},
				Action: r.VideosExport,
			},
			{
				Name:   "dump",
				Usage:  "Fetch catalog, uploads, and requests for debugging",
				Flags:  pageFlags(50),
				Action: r.VideosDump,
			},
			{
				Name:  "history",
				Usage: "Show locally recorded watch history",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum entries to show",
						Value: 20,
					},
				},
				Action: r.VideosHistory,
			},
		},
	}
}

// adminCommand handles moderation and platform administration
func adminCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Moderation and platform administration",
		Commands: []*cli.Command{
			{
				Name:   "videos",
				Usage:  "List all videos pending review",
				Flags:  pageFlags(20),
				Action: r.AdminVideos,
			},
			{
				Name:  "approve",
				Usage: "Approve a video for publication",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.AdminApprove,
			},
			{
				Name:  "reject",
				Usage: "Reject a video with a reason",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "reason",
						Usage:    "Rejection reason shown to the uploader",
						Required: true,
					},
				},
				Action: r.AdminReject,
			},
			{
				Name:  "delete",
				Usage: "Remove a video from the platform",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.AdminDelete,
			},
			{
				Name:   "stats",
				Usage:  "Show platform dashboard statistics",
				Action: r.AdminStats,
			},
			{
				Name:   "users",
				Usage:  "List platform users",
				Flags:  pageFlags(20),
				Action: r.AdminUsers,
			},
			{
				Name:  "role",
				Usage: "Change a user's role",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "role"},
				},
				Action: r.AdminSetRole,
			},
			{
				Name:  "activate",
				Usage: "Enable or disable a user account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "off",
						Usage: "Deactivate instead of activate",
					},
				},
				Action: r.AdminSetActive,
			},
			{
				Name:  "requests",
				Usage: "Review uploader-promotion requests",
				Flags: pageFlags(20),
				Commands: []*cli.Command{
					{
						Name:  "approve",
						Usage: "Approve an uploader request",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "id"},
						},
						Action: r.AdminRequestApprove,
					},
					{
						Name:  "reject",
						Usage: "Reject an uploader request",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "id"},
						},
						Action: r.AdminRequestReject,
					},
				},
				Action: r.AdminRequests,
			},
		},
	}
}

// accountCommand handles profile and uploader promotion
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Profile and uploader promotion",
		Commands: []*cli.Command{
			{
				Name:  "me",
				Usage: "Show the signed-in profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountMe,
			},
			{
				Name:  "update",
				Usage: "Update the profile nickname",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "nickname"},
				},
				Action: r.AccountUpdate,
			},
			{
				Name:  "promote",
				Usage: "Request promotion to uploader",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "reason",
						Usage:    "Why you want to upload",
						Required: true,
					},
				},
				Action: r.AccountPromote,
			},
			{
				Name:   "requests",
				Usage:  "Show your uploader requests",
				Flags:  pageFlags(20),
				Action: r.AccountRequests,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the Streamly backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET against the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Seed session cookies from a 'Copy as cURL' file",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// tuiCommand launches the interactive browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive catalog browser",
		Action: r.TUI,
	}
}
