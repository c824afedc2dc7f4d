// Package cli builds command-line entry points from declarative option
// descriptors.
//
// An Entry names an action and the options it accepts; an App assembles one
// or more entries into a runnable command:
//
//	app := cli.New("greet", "print greetings",
//		cli.Entry{
//			Name:  "greet",
//			Usage: "print a greeting",
//			Options: []cli.Option{
//				{Name: "greeting", Type: cli.TypeString, Default: "hello"},
//				{Name: "loud", Type: cli.TypeBool},
//			},
//			Action: func(ctx context.Context, v *cli.Values) error {
//				fmt.Println(v.String("greeting"))
//				return nil
//			},
//		},
//	)
//	if err := app.Run(context.Background(), os.Args); err != nil {
//		log.Fatal(err)
//	}
//
// A single entry becomes a flat command; several entries become subcommands
// named after each entry. Option names use snake_case and are rendered with
// dashes on the command line, matching the flag spelling used by the shell
// package.
package cli
